package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSuspensionIncrementsByDirection(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveSuspension(DirectionWrite)
	m.ObserveSuspension(DirectionWrite)
	m.ObserveSuspension(DirectionRead)

	write := counterValue(t, m.BufferSuspensions.WithLabelValues(string(DirectionWrite)))
	read := counterValue(t, m.BufferSuspensions.WithLabelValues(string(DirectionRead)))
	assert.Equal(t, 2.0, write)
	assert.Equal(t, 1.0, read)
}

func TestObserveDispatchTracksPerOID(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveDispatch(23) // int4
	m.ObserveDispatch(23)
	m.ObserveDispatch(25) // text

	assert.Equal(t, 2.0, counterValue(t, m.HandlerDispatches.WithLabelValues("23")))
	assert.Equal(t, 1.0, counterValue(t, m.HandlerDispatches.WithLabelValues("25")))
}

func TestObserveFlushAndRefillCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveFlush()
	m.ObserveFlush()
	m.ObserveRefill()

	assert.Equal(t, 2.0, counterValue(t, m.BufferFlushes))
	assert.Equal(t, 1.0, counterValue(t, m.BufferRefills))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, c.Write(&pb))
	return pb.GetCounter().GetValue()
}
