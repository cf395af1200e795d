package observability

import (
	"strings"
	"sync"

	"lendcore/core/events"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	transfers *prometheus.CounterVec
	seized    *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking committed contract events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lend",
				Subsystem: "events",
				Name:      "transfers_total",
				Help:      "Count of token transfers segmented by asset.",
			}, []string{"asset"}),
			seized: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lend",
				Subsystem: "events",
				Name:      "collateral_seizures_total",
				Help:      "Count of collateral seizures segmented by asset.",
			}, []string{"asset"}),
		}
		prometheus.MustRegister(eventRegistry.transfers, eventRegistry.seized)
	})
	return eventRegistry
}

// RecordTransfer increments the transfer counter for the supplied asset ticker.
func (m *eventMetrics) RecordTransfer(asset string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(normalizeAsset(asset)).Inc()
}

func (m *eventMetrics) RecordSeizure(asset string) {
	if m == nil {
		return
	}
	m.seized.WithLabelValues(strings.TrimSpace(asset)).Inc()
}

func normalizeAsset(asset string) string {
	normalized := strings.TrimSpace(strings.ToUpper(asset))
	if normalized == "" {
		normalized = "UNKNOWN"
	}
	return normalized
}

// EventMetrics is an emitter that feeds committed events into Events().
type EventMetrics struct{}

func (EventMetrics) Emit(evt events.Event) {
	committed, ok := evt.(events.Committed)
	if !ok || committed.Payload == nil {
		return
	}
	switch committed.Payload.Type {
	case events.TypeTokenTransfer:
		Events().RecordTransfer(committed.Payload.Attributes["token"])
	case events.TypeLendingCollateralSeized:
		Events().RecordSeizure(committed.Payload.Attributes["asset"])
	}
}
