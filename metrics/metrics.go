// Package metrics instruments the codec core with Prometheus counters
// (§10.5), covering the same events the teacher's pool.BufferPool
// tracked by hand with sync/atomic counters — gets/puts/hits/misses
// there become suspensions/flushes/refills/dispatches here.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every counter/histogram the codec core emits. The
// zero value is not usable; build one with New.
type Metrics struct {
	BufferSuspensions *prometheus.CounterVec
	BufferFlushes     prometheus.Counter
	BufferRefills     prometheus.Counter
	HandlerDispatches *prometheus.CounterVec
}

// Direction labels a suspension as occurring on the write or read side.
type Direction string

const (
	DirectionWrite Direction = "write"
	DirectionRead  Direction = "read"
)

// New builds a fresh Metrics instance and registers it with reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with other
// instances registered against the global default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BufferSuspensions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pgwirebind",
			Name:      "buffer_suspensions_total",
			Help:      "Count of codec suspensions (false returns) by direction.",
		}, []string{"direction"}),
		BufferFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pgwirebind",
			Name:      "buffer_flushes_total",
			Help:      "Count of ByteBuffer.Flush calls issued by the driver loop.",
		}),
		BufferRefills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pgwirebind",
			Name:      "buffer_refills_total",
			Help:      "Count of ByteBuffer.Refill calls issued by the driver loop.",
		}),
		HandlerDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pgwirebind",
			Name:      "handler_dispatches_total",
			Help:      "Count of type-handler dispatches by PostgreSQL OID.",
		}, []string{"oid"}),
	}
	reg.MustRegister(m.BufferSuspensions, m.BufferFlushes, m.BufferRefills, m.HandlerDispatches)
	return m
}

// ObserveSuspension records one codec suspension in the given direction.
func (m *Metrics) ObserveSuspension(dir Direction) {
	m.BufferSuspensions.WithLabelValues(string(dir)).Inc()
}

// ObserveFlush records one buffer flush.
func (m *Metrics) ObserveFlush() { m.BufferFlushes.Inc() }

// ObserveRefill records one buffer refill.
func (m *Metrics) ObserveRefill() { m.BufferRefills.Inc() }

// ObserveDispatch records one handler dispatch for oid, formatted as a
// decimal string label (matching how the registry itself keys handlers).
func (m *Metrics) ObserveDispatch(oid uint32) {
	m.HandlerDispatches.WithLabelValues(strconv.FormatUint(uint64(oid), 10)).Inc()
}
