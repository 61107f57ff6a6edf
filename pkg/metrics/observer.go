package metrics

import "time"

// Event names recorded across the tool layer and the order simulator.
const (
	EventToolCall        = "tool_call"
	EventOrderCreated    = "order_created"
	EventOrderTransition = "order_transition"
	EventCaseUpdated     = "fraud_case_updated"
)

type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}

// MultiObserver fans an event out to every non-nil observer.
type MultiObserver struct {
	list []Observer
}

func NewMultiObserver(list ...Observer) *MultiObserver {
	return &MultiObserver{list: list}
}

func (m *MultiObserver) RecordEvent(ev MetricsEvent) {
	for _, obs := range m.list {
		if obs != nil {
			obs.RecordEvent(ev)
		}
	}
}
