package infrastructure

import (
	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "kcbot_audio"

var (
	_ ports.CacheMetrics    = (*Metrics)(nil)
	_ ports.PlaybackMetrics = (*Metrics)(nil)
)

// Metrics records cache, fetch and session activity as Prometheus metrics.
type Metrics struct {
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	evictions          prometheus.Counter
	evictedBytes       prometheus.Counter
	fetches            *prometheus.CounterVec
	resolutionFailures prometheus.Counter
	sessions           prometheus.Gauge
}

// NewMetrics creates the audio metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_hits_total",
			Help:      "Cache lookups that found a completed file.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_misses_total",
			Help:      "Cache lookups that found nothing.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_evictions_total",
			Help:      "Files removed to keep the cache under its size bound.",
		}),
		evictedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_evicted_bytes_total",
			Help:      "Bytes freed by cache eviction.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fetches_total",
			Help:      "Download attempts by outcome.",
		}, []string{"outcome"}),
		resolutionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "resolution_failures_total",
			Help:      "Queries the resolution worker gave up on.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions",
			Help:      "Live playback sessions.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.cacheHits,
		m.cacheMisses,
		m.evictions,
		m.evictedBytes,
		m.fetches,
		m.resolutionFailures,
		m.sessions,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) CacheHit()  { m.cacheHits.Inc() }
func (m *Metrics) CacheMiss() { m.cacheMisses.Inc() }

func (m *Metrics) Evicted(bytes int64) {
	m.evictions.Inc()
	m.evictedBytes.Add(float64(bytes))
}

func (m *Metrics) Fetched(outcome string) { m.fetches.WithLabelValues(outcome).Inc() }
func (m *Metrics) ResolutionFailed()      { m.resolutionFailures.Inc() }
func (m *Metrics) SessionsChanged(delta int) {
	m.sessions.Add(float64(delta))
}
