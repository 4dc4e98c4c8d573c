package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"travelbooking/internal/booking"
)

const namespace = "travelbooking"

// Flow holds the booking flow collectors. It observes flow events.
type Flow struct {
	Transitions        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	SubmissionSeconds  prometheus.Histogram
	Active             prometheus.Gauge
}

func New(reg prometheus.Registerer) *Flow {
	m := &Flow{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_transitions_total",
			Help:      "Booking flow step changes.",
		}, []string{"from", "to"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_validation_failures_total",
			Help:      "Next requests rejected by step validation.",
		}, []string{"step"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_submissions_total",
			Help:      "Create-booking calls by outcome.",
		}, []string{"outcome"}),
		SubmissionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_submission_seconds",
			Help:      "Latency of create-booking calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flows_active",
			Help:      "Open booking flows.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Transitions, m.ValidationFailures, m.Submissions, m.SubmissionSeconds, m.Active)
	}
	return m
}

func (m *Flow) Observe(_ context.Context, ev booking.Event) {
	switch ev.Type {
	case booking.EventFlowOpened:
		m.Active.Inc()
	case booking.EventFlowClosed:
		m.Active.Dec()
	case booking.EventStepAdvanced, booking.EventStepReverted:
		m.Transitions.WithLabelValues(string(ev.From), string(ev.Step)).Inc()
	case booking.EventValidationFailed:
		m.ValidationFailures.WithLabelValues(string(ev.Step)).Inc()
	case booking.EventBookingConfirmed:
		m.Transitions.WithLabelValues(string(ev.From), string(ev.Step)).Inc()
		m.Submissions.WithLabelValues("confirmed").Inc()
		m.SubmissionSeconds.Observe(ev.Duration.Seconds())
	case booking.EventSubmissionFailed:
		m.Submissions.WithLabelValues("failed").Inc()
		m.SubmissionSeconds.Observe(ev.Duration.Seconds())
	}
}
