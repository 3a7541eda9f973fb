package catalog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors a Catalog reports to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests   *prometheus.CounterVec
	Latency    *prometheus.HistogramVec
	CacheHits  *prometheus.CounterVec
	CorpusSize prometheus.Gauge
	Reloads    prometheus.Counter
}

// NewMetrics registers the catalog collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promptdiscovery_requests_total",
			Help: "Total number of catalog operations by operation and outcome",
		}, []string{"op", "outcome"}),

		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promptdiscovery_request_duration_seconds",
			Help:    "Catalog operation latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"op"}),

		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promptdiscovery_cache_hits_total",
			Help: "Total number of result cache hits by operation",
		}, []string{"op"}),

		CorpusSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "promptdiscovery_corpus_prompts",
			Help: "Number of prompts in the loaded corpus",
		}),

		Reloads: f.NewCounter(prometheus.CounterOpts{
			Name: "promptdiscovery_corpus_reloads_total",
			Help: "Total number of corpus reloads that changed the corpus",
		}),
	}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Requests.WithLabelValues(op, outcome).Inc()
	m.Latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) cacheHit(op string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(op).Inc()
}

func (m *Metrics) corpusLoaded(size int) {
	if m == nil {
		return
	}
	m.CorpusSize.Set(float64(size))
	m.Reloads.Inc()
}
