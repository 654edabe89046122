package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the Prometheus-backed engine observer.
type Metrics struct {
	EventsTotal      *prometheus.CounterVec
	EventDuration    *prometheus.HistogramVec
	GuardrailsTotal  *prometheus.CounterVec
	DegradedTotal    prometheus.Counter
	ModelResetsTotal prometheus.Counter
	Reward           prometheus.Histogram
}

// New registers the engine metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amas_events_total",
				Help: "Total number of processed learning events",
			},
			[]string{"phase"},
		),
		EventDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "amas_event_duration_seconds",
				Help:    "End-to-end decision latency per event",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs to ~200ms
			},
			[]string{"phase"},
		),
		GuardrailsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amas_guardrails_total",
				Help: "Guardrail overrides by type",
			},
			[]string{"type"},
		),
		DegradedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "amas_degraded_total",
			Help: "Events answered with the previous strategy after an internal failure",
		}),
		ModelResetsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "amas_model_resets_total",
			Help: "Bandit models reinitialized after a failed factorization",
		}),
		Reward: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "amas_reward",
			Help:    "Reward credited to the previous action",
			Buckets: prometheus.LinearBuckets(-1, 0.25, 9),
		}),
	}
}

func (m *Metrics) EventProcessed(phase string, degraded bool, d time.Duration) {
	m.EventsTotal.WithLabelValues(phase).Inc()
	m.EventDuration.WithLabelValues(phase).Observe(d.Seconds())
	if degraded {
		m.DegradedTotal.Inc()
	}
}

func (m *Metrics) GuardrailTriggered(kind string) {
	m.GuardrailsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ModelReset() { m.ModelResetsTotal.Inc() }

func (m *Metrics) RewardObserved(r float64) { m.Reward.Observe(r) }
