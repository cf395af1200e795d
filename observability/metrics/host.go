package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HostMetrics tracks contract invocations executed by the host.
type HostMetrics struct {
	invocations *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rollbacks   *prometheus.CounterVec
	events      *prometheus.CounterVec
	sequence    prometheus.Gauge
}

var (
	hostOnce     sync.Once
	hostRegistry *HostMetrics
)

// Host returns the lazily registered host metrics.
func Host() *HostMetrics {
	hostOnce.Do(func() {
		hostRegistry = &HostMetrics{
			invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lend",
				Subsystem: "host",
				Name:      "invocations_total",
				Help:      "Contract method invocations segmented by contract kind, method and outcome.",
			}, []string{"contract", "method", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "lend",
				Subsystem: "host",
				Name:      "invocation_duration_seconds",
				Help:      "Latency distribution for top-level contract invocations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lend",
				Subsystem: "host",
				Name:      "rollbacks_total",
				Help:      "Invocations whose writes were discarded, by failure reason.",
			}, []string{"reason"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lend",
				Subsystem: "host",
				Name:      "events_total",
				Help:      "Committed contract events by type.",
			}, []string{"type"}),
			sequence: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "lend",
				Subsystem: "host",
				Name:      "committed_sequence",
				Help:      "Sequence number of the last committed invocation.",
			}),
		}
		prometheus.MustRegister(
			hostRegistry.invocations,
			hostRegistry.latency,
			hostRegistry.rollbacks,
			hostRegistry.events,
			hostRegistry.sequence,
		)
	})
	return hostRegistry
}

func label(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

// ObserveFrame records one contract frame, nested or top-level.
func (m *HostMetrics) ObserveFrame(contract, method string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.invocations.WithLabelValues(label(contract, "unknown"), label(method, "unknown"), outcome).Inc()
}

// ObserveInvocation records the latency of a top-level invocation.
func (m *HostMetrics) ObserveInvocation(method string, duration time.Duration) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(label(method, "unknown")).Observe(duration.Seconds())
}

// RecordRollback counts a discarded invocation. Reasons should be stable
// strings such as "error" or "query".
func (m *HostMetrics) RecordRollback(reason string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(label(reason, "unspecified")).Inc()
}

// RecordEvent counts a committed event.
func (m *HostMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(label(eventType, "unknown")).Inc()
}

// SetSequence publishes the last committed sequence number.
func (m *HostMetrics) SetSequence(seq uint64) {
	if m == nil {
		return
	}
	m.sequence.Set(float64(seq))
}
