package observability

import (
	gu "github.com/xraph/go-utils/metrics"
)

// Metrics holds metric instruments for roomlog, backed by any go-utils
// MetricFactory supplied by the hosting application.
type Metrics struct {
	EventsAppendedTotal gu.Counter
	PruneRunsTotal      gu.Counter
	PrunedEventsTotal   gu.Counter
	PruneDuration       gu.Histogram
}

// NewMetrics creates roomlog metric instruments using the supplied factory.
// Pass metrics.NewMetricsCollector() for standalone usage.
func NewMetrics(factory gu.MetricFactory) *Metrics {
	return &Metrics{
		EventsAppendedTotal: factory.Counter("roomlog_events_appended_total"),
		PruneRunsTotal:      factory.Counter("roomlog_prune_runs_total"),
		PrunedEventsTotal:   factory.Counter("roomlog_pruned_events_total"),
		PruneDuration:       factory.Histogram("roomlog_prune_duration_seconds"),
	}
}

// RecordAppend records an appended event by type discriminator.
func (m *Metrics) RecordAppend(eventType string) {
	m.EventsAppendedTotal.WithLabels(map[string]string{"type": eventType}).Inc()
}

// RecordPrune records a completed prune run: redaction counts by payload
// kind and the run duration.
func (m *Metrics) RecordPrune(kindCounts map[string]int, durationSeconds float64) {
	m.PruneRunsTotal.Inc()

	for kind, n := range kindCounts {
		m.PrunedEventsTotal.WithLabels(map[string]string{"kind": kind}).Add(float64(n))
	}

	m.PruneDuration.Observe(durationSeconds)
}
