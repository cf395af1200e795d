package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LendingMetrics captures protocol-level activity of the lending pool.
type LendingMetrics struct {
	actions      *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	liquidations prometheus.Counter
}

var (
	lendingOnce     sync.Once
	lendingRegistry *LendingMetrics
)

func Lending() *LendingMetrics {
	lendingOnce.Do(func() {
		lendingRegistry = &LendingMetrics{
			actions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lend",
				Subsystem: "pool",
				Name:      "actions_total",
				Help:      "Committed pool actions by type.",
			}, []string{"action"}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lend",
				Subsystem: "pool",
				Name:      "rejections_total",
				Help:      "Pool actions rejected by a guard, by action and reason.",
			}, []string{"action", "reason"}),
			liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "lend",
				Subsystem: "pool",
				Name:      "liquidations_total",
				Help:      "Positions liquidated.",
			}),
		}
		prometheus.MustRegister(
			lendingRegistry.actions,
			lendingRegistry.rejections,
			lendingRegistry.liquidations,
		)
	})
	return lendingRegistry
}

func (m *LendingMetrics) RecordAction(action string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(label(action, "unknown")).Inc()
	if action == "liquidate" || action == "resolveBadDebt" {
		m.liquidations.Inc()
	}
}

func (m *LendingMetrics) RecordRejection(action, reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(label(action, "unknown"), label(reason, "unspecified")).Inc()
}
