package booking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Submitter places the booking for a validated draft.
type Submitter interface {
	Submit(ctx context.Context, d *Draft) (*Confirmation, error)
}

// State is what a client needs to render the current step.
type State struct {
	Step         Step              `json:"step"`
	StepNumber   int               `json:"step_number"`
	LastError    string            `json:"last_error,omitempty"`
	FieldErrors  map[string]string `json:"field_errors,omitempty"`
	Confirmation *Confirmation     `json:"confirmation,omitempty"`
	Busy         bool              `json:"busy"`
	Total        decimal.Decimal   `json:"total"`
}

// Flow drives one draft through dates, travelers, contact and confirmation.
// It is safe for concurrent use.
type Flow struct {
	mu sync.Mutex

	id     string
	draft  *Draft
	step   Step
	busy   bool
	closed bool

	lastError    string
	fieldErrors  map[string]string
	confirmation *Confirmation

	submitter Submitter
	observer  Observer
	log       *slog.Logger
	now       func() time.Time
}

type Option func(*Flow)

func WithID(id string) Option { return func(f *Flow) { f.id = id } }

func WithObserver(o Observer) Option { return func(f *Flow) { f.observer = o } }

func WithLogger(l *slog.Logger) Option { return func(f *Flow) { f.log = l } }

// WithClock sets the source of "today" for date rules.
func WithClock(now func() time.Time) Option { return func(f *Flow) { f.now = now } }

// WithDraft replaces the seeded draft, e.g. with one loaded from a fixture.
func WithDraft(d *Draft) Option { return func(f *Flow) { f.draft = d } }

func NewFlow(dest Destination, profile Profile, submitter Submitter, opts ...Option) *Flow {
	f := &Flow{
		draft:     NewDraft(dest, profile),
		step:      StepDates,
		submitter: submitter,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) ID() string { return f.id }

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

// Draft returns a copy of the current draft.
func (f *Flow) Draft() *Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft == nil {
		return nil
	}
	return f.draft.Clone()
}

// Validate checks the current step without moving.
func (f *Flow) Validate() Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Validate(f.step, f.draft, f.now())
}

func (f *Flow) SetField(name, value string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return f.stateLocked(), err
	}
	if err := f.draft.SetField(name, value); err != nil {
		return f.stateLocked(), err
	}
	f.lastError = ""
	f.fieldErrors = nil
	return f.stateLocked(), nil
}

func (f *Flow) SetTraveler(index int, field, value string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return f.stateLocked(), err
	}
	if err := f.draft.SetTraveler(index, field, value); err != nil {
		return f.stateLocked(), err
	}
	return f.stateLocked(), nil
}

// SetFields applies draft-level fields in name order. Either every field is
// applied or, on the first error, none is.
func (f *Flow) SetFields(fields map[string]string) (State, error) {
	return f.applyAll(fields, true, func(d *Draft, name, value string) error {
		return d.SetField(name, value)
	})
}

// SetTravelerFields is SetFields for the traveler at index.
func (f *Flow) SetTravelerFields(index int, fields map[string]string) (State, error) {
	return f.applyAll(fields, false, func(d *Draft, name, value string) error {
		return d.SetTraveler(index, name, value)
	})
}

func (f *Flow) applyAll(fields map[string]string, clearBanner bool, set func(d *Draft, name, value string) error) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return f.stateLocked(), err
	}

	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	next := f.draft.Clone()
	for _, name := range names {
		if err := set(next, name, fields[name]); err != nil {
			return f.stateLocked(), err
		}
	}
	f.draft = next
	if clearBanner && len(names) > 0 {
		f.lastError = ""
		f.fieldErrors = nil
	}
	return f.stateLocked(), nil
}

// Next validates the current step and advances by one. From the contact step it
// submits the booking; a failed submission leaves the flow on contact with the
// message in LastError and returns the error.
func (f *Flow) Next(ctx context.Context) (State, error) {
	f.mu.Lock()
	if err := f.usableLocked(); err != nil {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, err
	}
	if f.step == StepConfirmation {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, nil
	}

	from := f.step
	res := Validate(from, f.draft, f.now())
	if !res.Valid {
		f.lastError = res.First()
		f.fieldErrors = res.ErrorMap()
		st := f.stateLocked()
		ev := f.eventLocked(EventValidationFailed, from, from, res.First())
		ev.Data = map[string]any{"fields": res.ErrorMap()}
		f.mu.Unlock()
		f.emit(ctx, ev)
		return st, nil
	}
	f.lastError = ""
	f.fieldErrors = nil

	if from == StepContact {
		return f.submit(ctx)
	}

	to := nextStep[from]
	if !CanTransition(from, to) {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, fmt.Errorf("transition %s -> %s not allowed", from, to)
	}
	f.step = to
	st := f.stateLocked()
	ev := f.eventLocked(EventStepAdvanced, from, to, fmt.Sprintf("%s -> %s", from, to))
	f.mu.Unlock()
	f.emit(ctx, ev)
	return st, nil
}

// submit is entered with f.mu held and releases it for the API call. Once started
// the submission ignores cancellation of ctx; the submitter's own timeout bounds it.
func (f *Flow) submit(ctx context.Context) (State, error) {
	f.busy = true
	draft := f.draft.Clone()
	f.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	conf, err := f.callSubmitter(ctx, draft)
	elapsed := time.Since(started)

	f.mu.Lock()
	f.busy = false
	var ev Event
	if err != nil {
		f.lastError = SubmissionMessage(err)
		ev = f.eventLocked(EventSubmissionFailed, StepContact, StepContact, f.lastError)
		err = fmt.Errorf("submit booking: %w", err)
	} else {
		f.confirmation = conf
		f.step = StepConfirmation
		ev = f.eventLocked(EventBookingConfirmed, StepContact, StepConfirmation, "booking "+conf.BookingID)
		ev.Data = map[string]any{
			"booking_id":  conf.BookingID,
			"status":      conf.Status,
			"placeholder": conf.Placeholder,
			"total":       draft.Total().String(),
		}
	}
	ev.Duration = elapsed
	st := f.stateLocked()
	f.mu.Unlock()

	f.emit(ctx, ev)
	return st, err
}

// callSubmitter turns a submitter panic into a failed submission so busy is
// always cleared.
func (f *Flow) callSubmitter(ctx context.Context, d *Draft) (conf *Confirmation, err error) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("booking submitter panicked", "flow_id", f.id, "panic", r)
			conf, err = nil, fmt.Errorf("submitter panic: %v", r)
		}
	}()
	return f.submitter.Submit(ctx, d)
}

// Previous moves back one step, never before dates, and clears the error banner.
// Confirmation is terminal.
func (f *Flow) Previous() (State, error) {
	f.mu.Lock()
	if err := f.usableLocked(); err != nil {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, err
	}
	if f.step == StepConfirmation {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, nil
	}

	f.lastError = ""
	f.fieldErrors = nil
	from := f.step
	to, ok := previousStep[from]
	if !ok || !CanTransition(from, to) {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, nil
	}
	f.step = to
	st := f.stateLocked()
	ev := f.eventLocked(EventStepReverted, from, to, fmt.Sprintf("%s -> %s", from, to))
	f.mu.Unlock()
	f.emit(context.Background(), ev)
	return st, nil
}

// Close discards the draft. A flow cannot be closed mid-submission.
func (f *Flow) Close(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}
	f.closed = true
	f.draft = nil
	ev := f.eventLocked(EventFlowClosed, f.step, f.step, "flow closed")
	f.mu.Unlock()
	f.emit(ctx, ev)
	return nil
}

func (f *Flow) usableLocked() error {
	if f.closed {
		return ErrClosed
	}
	if f.busy {
		return ErrBusy
	}
	return nil
}

func (f *Flow) editableLocked() error {
	if err := f.usableLocked(); err != nil {
		return err
	}
	if f.step == StepConfirmation {
		return ErrConfirmed
	}
	return nil
}

func (f *Flow) stateLocked() State {
	st := State{
		Step:         f.step,
		StepNumber:   f.step.Number(),
		LastError:    f.lastError,
		Confirmation: f.confirmation,
		Busy:         f.busy,
	}
	if len(f.fieldErrors) > 0 {
		st.FieldErrors = make(map[string]string, len(f.fieldErrors))
		for k, v := range f.fieldErrors {
			st.FieldErrors[k] = v
		}
	}
	if f.draft != nil {
		st.Total = f.draft.Total()
	}
	return st
}

func (f *Flow) eventLocked(t EventType, from, to Step, summary string) Event {
	return Event{
		FlowID:     f.id,
		Type:       t,
		From:       from,
		Step:       to,
		Summary:    summary,
		OccurredAt: f.now().UTC(),
	}
}

func (f *Flow) emit(ctx context.Context, ev Event) {
	f.log.Debug("booking flow event", "flow_id", ev.FlowID, "type", ev.Type, "from", ev.From, "step", ev.Step)
	if f.observer == nil {
		return
	}
	f.observer.Observe(ctx, ev)
}
