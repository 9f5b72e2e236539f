// Package metrics keeps the query counters reported with every search
// response and mirrors them into Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query sources.
const (
	SourceLocal = "local"
	SourceCloud = "cloud"
)

// Snapshot is a point-in-time copy of the counters with derived ratios.
type Snapshot struct {
	TotalQueries        int64   `json:"total_queries"`
	LocalHits           int64   `json:"local_hits"`
	CloudHits           int64   `json:"cloud_hits"`
	CumulativeLatencyMs float64 `json:"cumulative_latency_ms"`
	PredictionHits      int64   `json:"prediction_hits"`
	PredictionMisses    int64   `json:"prediction_misses"`
	AvgLatencyMs        float64 `json:"avg_latency_ms"`
	LocalHitRate        float64 `json:"local_hit_rate"`
	PredictionAccuracy  float64 `json:"prediction_accuracy"`
}

// Metrics holds cumulative query counters. The zero value is not usable; call New.
type Metrics struct {
	mu                  sync.Mutex
	totalQueries        int64
	localHits           int64
	cloudHits           int64
	cumulativeLatencyMs float64
	predictionHits      int64
	predictionMisses    int64

	prom *collectors
}

// collectors are the Prometheus views of the same events.
//
//   - hybridvdb_queries_total{source}
//   - hybridvdb_query_latency_seconds
//   - hybridvdb_prediction_checks_total{result}
//   - hybridvdb_anchors, hybridvdb_clusters
//   - hybridvdb_partition_vectors{partition}
type collectors struct {
	queries          *prometheus.CounterVec
	latency          prometheus.Histogram
	predictionChecks *prometheus.CounterVec
	anchors          prometheus.Gauge
	clusters         prometheus.Gauge
	partitionVectors *prometheus.GaugeVec
}

// New creates counters. When reg is non-nil the Prometheus collectors are
// registered on it; a nil reg keeps metrics in-process only.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{}
	if reg == nil {
		return m
	}
	factory := promauto.With(reg)
	m.prom = &collectors{
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hybridvdb",
				Name:      "queries_total",
				Help:      "Total number of search queries by result source",
			},
			[]string{"source"}, // "local" or "cloud"
		),
		latency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "hybridvdb",
				Name:      "query_latency_seconds",
				Help:      "End-to-end search latency in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		predictionChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hybridvdb",
				Name:      "prediction_checks_total",
				Help:      "Prediction checks by result",
			},
			[]string{"result"}, // "hit" or "miss"
		),
		anchors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hybridvdb",
			Name:      "anchors",
			Help:      "Number of live anchors",
		}),
		clusters: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hybridvdb",
			Name:      "clusters",
			Help:      "Number of live semantic clusters",
		}),
		partitionVectors: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "hybridvdb",
				Name:      "partition_vectors",
				Help:      "Vectors held per storage partition",
			},
			[]string{"partition"},
		),
	}
	return m
}

// RecordQuery counts one finished query.
func (m *Metrics) RecordQuery(latencyMs float64, source string) {
	m.mu.Lock()
	m.totalQueries++
	m.cumulativeLatencyMs += latencyMs
	if source == SourceLocal {
		m.localHits++
	} else {
		m.cloudHits++
	}
	m.mu.Unlock()

	if m.prom != nil {
		m.prom.queries.WithLabelValues(source).Inc()
		m.prom.latency.Observe(latencyMs / 1000)
	}
}

// RecordPrediction counts one prediction check.
func (m *Metrics) RecordPrediction(hit bool) {
	m.mu.Lock()
	if hit {
		m.predictionHits++
	} else {
		m.predictionMisses++
	}
	m.mu.Unlock()

	if m.prom != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.prom.predictionChecks.WithLabelValues(result).Inc()
	}
}

// ObserveState publishes collection sizes. It only feeds Prometheus.
func (m *Metrics) ObserveState(anchors, clusters int, partitions map[string]int) {
	if m.prom == nil {
		return
	}
	m.prom.anchors.Set(float64(anchors))
	m.prom.clusters.Set(float64(clusters))
	for name, n := range partitions {
		m.prom.partitionVectors.WithLabelValues(name).Set(float64(n))
	}
}

// Snapshot returns the counters and derived ratios. Ratios are 0 when their
// denominator is 0.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{
		TotalQueries:        m.totalQueries,
		LocalHits:           m.localHits,
		CloudHits:           m.cloudHits,
		CumulativeLatencyMs: m.cumulativeLatencyMs,
		PredictionHits:      m.predictionHits,
		PredictionMisses:    m.predictionMisses,
	}
	if m.totalQueries > 0 {
		s.AvgLatencyMs = m.cumulativeLatencyMs / float64(m.totalQueries)
		s.LocalHitRate = float64(m.localHits) / float64(m.totalQueries)
	}
	if checks := m.predictionHits + m.predictionMisses; checks > 0 {
		s.PredictionAccuracy = float64(m.predictionHits) / float64(checks)
	}
	return s
}
