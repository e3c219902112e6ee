package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes.
const (
	OutcomeReady    = "ready"
	OutcomeFallback = "fallback"
	OutcomeTimeout  = "timeout"
)

// Metrics groups the bridge collectors.
type Metrics struct {
	loads       *prometheus.CounterVec
	loadSeconds prometheus.Histogram
	executions  *prometheus.HistogramVec
	buffers     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bustub_engine_loads_total",
				Help: "Engine load attempts by outcome.",
			},
			[]string{"outcome"},
		),
		loadSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bustub_engine_load_duration_seconds",
				Help:    "Time spent loading the engine.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
			},
		),
		executions: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bustub_execute_duration_seconds",
				Help:    "Duration of execute calls by return code.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"code"},
		),
		buffers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bustub_arena_buffers_in_use",
				Help: "Scratch buffers currently borrowed from the arena.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.loads, m.loadSeconds, m.executions, m.buffers)
	}
	return m
}

// ObserveLoad records the end of a load attempt.
func (m *Metrics) ObserveLoad(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(outcome).Inc()
	m.loadSeconds.Observe(d.Seconds())
}

// ObserveExecute records one execute call. code is the engine return code,
// or "none" when the call never reached the engine.
func (m *Metrics) ObserveExecute(code string, d time.Duration) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(code).Observe(d.Seconds())
}

// SetBuffersInUse updates the arena gauge.
func (m *Metrics) SetBuffersInUse(n int) {
	if m == nil {
		return
	}
	m.buffers.Set(float64(n))
}
