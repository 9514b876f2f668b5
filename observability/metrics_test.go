package observability_test

import (
	"testing"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/meshchat/roomlog/observability"
)

func TestRecordAppend(t *testing.T) {
	m := observability.NewMetrics(gu.NewMetricsCollector("roomlog-test"))

	m.RecordAppend("msg")
	m.RecordAppend("prmsg")
}

func TestRecordPrune(t *testing.T) {
	m := observability.NewMetrics(gu.NewMetricsCollector("roomlog-test"))

	m.RecordPrune(map[string]int{"file": 2, "message": 3}, 0.25)
	m.RecordPrune(nil, 0.5)

	if got := m.PruneRunsTotal.Value(); got != 2 {
		t.Fatalf("expected 2 prune runs, got %v", got)
	}
	if got := m.PruneDuration.Count(); got != 2 {
		t.Fatalf("expected 2 duration observations, got %v", got)
	}
	if got := m.PruneDuration.Sum(); got != 0.75 {
		t.Fatalf("expected duration sum 0.75, got %v", got)
	}
}
