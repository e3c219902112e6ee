package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveLoad(OutcomeReady, 120*time.Millisecond)
	m.ObserveLoad(OutcomeFallback, time.Second)
	m.ObserveExecute("0", 3*time.Millisecond)
	m.ObserveExecute("0", 4*time.Millisecond)
	m.SetBuffersInUse(2)

	families := gather(t, reg)

	loads := families["bustub_engine_loads_total"]
	require.NotNil(t, loads)
	assert.Len(t, loads.GetMetric(), 2)
	for _, metric := range loads.GetMetric() {
		assert.Equal(t, 1.0, metric.GetCounter().GetValue())
	}

	exec := families["bustub_execute_duration_seconds"]
	require.NotNil(t, exec)
	require.Len(t, exec.GetMetric(), 1)
	assert.Equal(t, uint64(2), exec.GetMetric()[0].GetHistogram().GetSampleCount())

	buffers := families["bustub_arena_buffers_in_use"]
	require.NotNil(t, buffers)
	assert.Equal(t, 2.0, buffers.GetMetric()[0].GetGauge().GetValue())
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLoad(OutcomeTimeout, time.Second)
		m.ObserveExecute("none", time.Millisecond)
		m.SetBuffersInUse(1)
	})
}
