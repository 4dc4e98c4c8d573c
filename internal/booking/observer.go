package booking

import (
	"context"
	"time"
)

type EventType string

const (
	EventFlowOpened       EventType = "FLOW_OPENED"
	EventStepAdvanced     EventType = "STEP_ADVANCED"
	EventStepReverted     EventType = "STEP_REVERTED"
	EventValidationFailed EventType = "VALIDATION_FAILED"
	EventSubmissionFailed EventType = "SUBMISSION_FAILED"
	EventBookingConfirmed EventType = "BOOKING_CONFIRMED"
	EventFlowClosed       EventType = "FLOW_CLOSED"
)

// Event is a notable change in a flow's life.
type Event struct {
	FlowID     string
	Type       EventType
	From       Step
	Step       Step
	Summary    string
	OccurredAt time.Time
	// Duration is set for submission outcomes.
	Duration time.Duration
	Data     map[string]any
}

type Observer interface {
	Observe(ctx context.Context, ev Event)
}

type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

// Observers fans events out in order. Nil entries are skipped.
func Observers(obs ...Observer) Observer {
	var list []Observer
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return ObserverFunc(func(ctx context.Context, ev Event) {
		for _, o := range list {
			o.Observe(ctx, ev)
		}
	})
}
