package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/freeeve/chessgraph/gamesearch/internal/codec"
)

func TestObserveSearch(t *testing.T) {
	okBefore := testutil.ToFloat64(Searches.WithLabelValues("position", "ok"))
	errBefore := testutil.ToFloat64(Searches.WithLabelValues("position", "error"))
	fastBefore := testutil.ToFloat64(PliesDecoded.WithLabelValues("fast"))
	slowBefore := testutil.ToFloat64(PliesDecoded.WithLabelValues("slow"))

	ObserveSearch("position", time.Now(), 3, codec.Stats{FastPlies: 40, SlowPlies: 2}, nil)
	ObserveSearch("position", time.Now(), 0, codec.Stats{}, errors.New("cancelled"))

	if got := testutil.ToFloat64(Searches.WithLabelValues("position", "ok")) - okBefore; got != 1 {
		t.Fatalf("ok searches += %v, want 1", got)
	}
	if got := testutil.ToFloat64(Searches.WithLabelValues("position", "error")) - errBefore; got != 1 {
		t.Fatalf("error searches += %v, want 1", got)
	}
	if got := testutil.ToFloat64(PliesDecoded.WithLabelValues("fast")) - fastBefore; got != 40 {
		t.Fatalf("fast plies += %v, want 40", got)
	}
	if got := testutil.ToFloat64(PliesDecoded.WithLabelValues("slow")) - slowBefore; got != 2 {
		t.Fatalf("slow plies += %v, want 2", got)
	}
}
