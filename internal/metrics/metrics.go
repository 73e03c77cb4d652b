// Package metrics holds the Prometheus collectors of the search service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/freeeve/chessgraph/gamesearch/internal/codec"
)

const namespace = "gamesearch"

var (
	// Searches counts search requests.
	// Labels: kind (position, pattern, material), status (ok, error)
	Searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "requests_total",
		Help:      "Total corpus searches by kind and status",
	}, []string{"kind", "status"})

	// SearchLatency measures a whole corpus sweep.
	// Labels: kind
	SearchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "latency_seconds",
		Help:      "Corpus search latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"kind"})

	// SearchMatches tracks how many games one search returns.
	SearchMatches = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "matches",
		Help:      "Games matched per search",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	// PliesDecoded counts plies decoded per decoder path.
	// Labels: path (fast, slow)
	PliesDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "codec",
		Name:      "plies_decoded_total",
		Help:      "Plies decoded by the fast and slow paths",
	}, []string{"path"})

	// CorpusGames is the number of games held in memory.
	CorpusGames = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "corpus",
		Name:      "games",
		Help:      "Games currently loaded",
	})

	// IngestGames counts PGN games seen by ingest.
	// Labels: outcome (loaded, filtered, rejected)
	IngestGames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "games_total",
		Help:      "PGN games read by ingest by outcome",
	}, []string{"outcome"})
)

// ObserveSearch records one finished search.
func ObserveSearch(kind string, started time.Time, matches int, stats codec.Stats, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	Searches.WithLabelValues(kind, status).Inc()
	SearchLatency.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	if err == nil {
		SearchMatches.Observe(float64(matches))
	}
	ObserveDecode(stats)
}

// ObserveDecode adds decoder path counts.
func ObserveDecode(stats codec.Stats) {
	PliesDecoded.WithLabelValues("fast").Add(float64(stats.FastPlies))
	PliesDecoded.WithLabelValues("slow").Add(float64(stats.SlowPlies))
}
