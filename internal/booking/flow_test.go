package booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelbooking/pkg/travelapi"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventType
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestFlow(t *testing.T, sub Submitter, opts ...Option) *Flow {
	t.Helper()
	opts = append([]Option{
		WithID("flow-1"),
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return today }),
	}, opts...)
	return NewFlow(Destination{ID: 3}, Profile{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}, sub, opts...)
}

// fillToContact walks a fresh flow through dates and travelers.
func fillToContact(t *testing.T, f *Flow) {
	t.Helper()
	ctx := context.Background()
	mustSet(t, f, "departure_date", "2026-11-01")
	mustSet(t, f, "return_date", "2026-11-08")
	st, err := f.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, StepTravelers, st.Step)

	_, err = f.SetTraveler(0, "date_of_birth", "1990-12-10")
	require.NoError(t, err)
	_, err = f.SetTraveler(0, "nationality", "UK")
	require.NoError(t, err)
	st, err = f.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, StepContact, st.Step)

	mustSet(t, f, "emergency_contact_name", "Annabella")
	mustSet(t, f, "emergency_contact_phone", "+44 20 7946 0000")
}

func mustSet(t *testing.T, f *Flow, name, value string) {
	t.Helper()
	_, err := f.SetField(name, value)
	require.NoError(t, err)
}

func TestFlow_NextFromDatesAdvancesOnce(t *testing.T) {
	f := newTestFlow(t, NewCoordinator(&fakeCreator{}, quietLogger()))
	assert.Equal(t, StepDates, f.State().Step)

	st, err := f.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepDates, st.Step)
	assert.Equal(t, "Please select both departure and return dates", st.LastError)
	assert.Contains(t, st.FieldErrors, "departure_date")

	mustSet(t, f, "departure_date", "2026-11-01")
	mustSet(t, f, "return_date", "2026-11-08")
	assert.Empty(t, f.State().LastError, "editing a field clears the banner")

	st, err = f.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepTravelers, st.Step)
	assert.Equal(t, 2, st.StepNumber)
}

func TestFlow_PreviousFloorsAtDates(t *testing.T) {
	f := newTestFlow(t, nil)
	_, _ = f.Next(context.Background())
	require.NotEmpty(t, f.State().LastError)

	st, err := f.Previous()
	require.NoError(t, err)
	assert.Equal(t, StepDates, st.Step)
	assert.Empty(t, st.LastError)

	mustSet(t, f, "departure_date", "2026-11-01")
	mustSet(t, f, "return_date", "2026-11-08")
	_, err = f.Next(context.Background())
	require.NoError(t, err)

	st, _ = f.Previous()
	assert.Equal(t, StepDates, st.Step)
	st, _ = f.Previous()
	assert.Equal(t, StepDates, st.Step)
}

func TestFlow_SubmitSuccessIsTerminal(t *testing.T) {
	api := &fakeCreator{resp: &travelapi.CreateBookingResponse{
		Success: true,
		Booking: &travelapi.Booking{BookingID: "TT1", Status: "pending"},
	}}
	rec := &recorder{}
	f := newTestFlow(t, NewCoordinator(api, quietLogger()), WithObserver(rec))
	fillToContact(t, f)

	st, err := f.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, st.Step)
	require.NotNil(t, st.Confirmation)
	assert.Equal(t, "TT1", st.Confirmation.BookingID)
	assert.Equal(t, 1, api.calls())

	again, err := f.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, st, again)
	back, err := f.Previous()
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, back.Step)
	assert.Equal(t, 1, api.calls())

	_, err = f.SetField("special_requests", "late change")
	assert.ErrorIs(t, err, ErrConfirmed)

	assert.Equal(t, []EventType{EventStepAdvanced, EventStepAdvanced, EventBookingConfirmed}, rec.types())
}

func TestFlow_SubmitFailureStaysOnContact(t *testing.T) {
	api := &fakeCreator{err: &travelapi.APIError{StatusCode: 400, Message: "Travel dates are not available"}}
	rec := &recorder{}
	f := newTestFlow(t, NewCoordinator(api, quietLogger()), WithObserver(rec))
	fillToContact(t, f)

	st, err := f.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepContact, st.Step)
	assert.Equal(t, "Travel dates are not available", st.LastError)
	assert.Nil(t, st.Confirmation)
	assert.False(t, st.Busy)

	api.err = nil
	api.resp = &travelapi.CreateBookingResponse{Booking: &travelapi.Booking{BookingID: "TT2", Status: "pending"}}
	st, err = f.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, st.Step)
	assert.Equal(t, 2, api.calls())

	types := rec.types()
	assert.Contains(t, types, EventSubmissionFailed)
	assert.Equal(t, EventBookingConfirmed, types[len(types)-1])
}

func TestFlow_BusyRejectsEverything(t *testing.T) {
	api := &fakeCreator{
		resp:    &travelapi.CreateBookingResponse{Booking: &travelapi.Booking{BookingID: "TT3", Status: "pending"}},
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	f := newTestFlow(t, NewCoordinator(api, quietLogger()))
	fillToContact(t, f)

	done := make(chan State, 1)
	go func() {
		st, _ := f.Next(context.Background())
		done <- st
	}()
	<-api.entered

	assert.True(t, f.State().Busy)
	_, err := f.Next(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = f.Previous()
	assert.ErrorIs(t, err, ErrBusy)
	_, err = f.SetField("special_requests", "x")
	assert.ErrorIs(t, err, ErrBusy)
	_, err = f.SetTraveler(0, "first_name", "x")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, f.Close(context.Background()), ErrBusy)
	assert.Equal(t, StepContact, f.State().Step)

	close(api.release)
	st := <-done
	assert.Equal(t, StepConfirmation, st.Step)
	assert.False(t, st.Busy)
	assert.Equal(t, 1, api.calls())
}

func TestFlow_CloseDiscardsDraft(t *testing.T) {
	rec := &recorder{}
	f := newTestFlow(t, nil, WithObserver(rec))
	require.NoError(t, f.Close(context.Background()))
	require.NoError(t, f.Close(context.Background()))

	assert.Nil(t, f.Draft())
	_, err := f.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.SetField("special_requests", "x")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, []EventType{EventFlowClosed}, rec.types())
}

func TestFlow_TotalFollowsTravelerCount(t *testing.T) {
	f := newTestFlow(t, nil)
	st, err := f.SetField("number_of_travelers", "4")
	require.NoError(t, err)
	assert.Equal(t, "5196", st.Total.String())
	assert.Len(t, f.Draft().Travelers, 4)
}

func TestFlow_EndToEndAgainstAPI(t *testing.T) {
	replies := []struct {
		status int
		body   string
	}{
		{http.StatusBadRequest, `{"error":"Validation failed","errors":{"start_date":["Start date cannot be in the past"]}}`},
		{http.StatusCreated, `{"success":true,"message":"Booking created successfully","booking":{"id":12,"booking_id":"TT0C4F9A21","status":"pending","total_price":"1299.00"}}`},
	}
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply := replies[calls.Add(1)-1]
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(reply.status)
		_, _ = w.Write([]byte(reply.body))
	}))
	defer srv.Close()

	client := travelapi.New(srv.URL, time.Second, nil)
	f := newTestFlow(t, NewCoordinator(client, quietLogger()))
	fillToContact(t, f)

	st, err := f.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepContact, st.Step)
	assert.Equal(t, "Validation failed", st.LastError)

	st, err = f.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, st.Step)
	assert.Equal(t, "TT0C4F9A21", st.Confirmation.BookingID)
	assert.False(t, st.Confirmation.Placeholder)
	assert.Equal(t, int32(2), calls.Load())
}

type submitterFunc func(ctx context.Context, d *Draft) (*Confirmation, error)

func (fn submitterFunc) Submit(ctx context.Context, d *Draft) (*Confirmation, error) {
	return fn(ctx, d)
}

func TestFlow_SubmissionIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := submitterFunc(func(sctx context.Context, _ *Draft) (*Confirmation, error) {
		cancel()
		if err := sctx.Err(); err != nil {
			return nil, err
		}
		return &Confirmation{BookingID: "TT4", Status: "pending"}, nil
	})
	f := newTestFlow(t, sub)
	fillToContact(t, f)

	st, err := f.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, st.Step)
	assert.Empty(t, st.LastError)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestFlow_SubmitterPanicClearsBusy(t *testing.T) {
	panics := true
	sub := submitterFunc(func(context.Context, *Draft) (*Confirmation, error) {
		if panics {
			panic("boom")
		}
		return &Confirmation{BookingID: "TT5", Status: "pending"}, nil
	})
	f := newTestFlow(t, sub)
	fillToContact(t, f)

	st, err := f.Next(context.Background())
	require.Error(t, err)
	assert.False(t, st.Busy)
	assert.Equal(t, StepContact, st.Step)
	assert.Equal(t, "Failed to create booking. Please try again.", st.LastError)

	panics = false
	st, err = f.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, st.Step)
	assert.NoError(t, f.Close(context.Background()))
}

func TestFlow_SetFieldsIsAllOrNothing(t *testing.T) {
	f := newTestFlow(t, nil)

	_, err := f.SetFields(map[string]string{
		"departure_date": "2026-11-01",
		"return_date":    "next week",
	})
	var fe FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "return_date", fe.Field)
	assert.Empty(t, f.Draft().DepartureDate)

	st, err := f.SetFields(map[string]string{
		"departure_date":      "2026-11-01",
		"return_date":         "2026-11-08",
		"number_of_travelers": "2",
	})
	require.NoError(t, err)
	assert.Equal(t, "2598", st.Total.String())
	d := f.Draft()
	assert.Equal(t, "2026-11-01", d.DepartureDate)
	assert.Equal(t, "2026-11-08", d.ReturnDate)
	assert.Len(t, d.Travelers, 2)
}

func TestFlow_SetTravelerFieldsIsAllOrNothing(t *testing.T) {
	f := newTestFlow(t, nil)

	_, err := f.SetTravelerFields(0, map[string]string{
		"passport_number": "X123",
		"nationality":     "Atlantis",
	})
	var fe FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "travelers[0].nationality", fe.Field)
	assert.Empty(t, f.Draft().Travelers[0].PassportNumber)

	_, err = f.SetTravelerFields(0, map[string]string{"passport_number": "X123", "nationality": "UK"})
	require.NoError(t, err)
	tr := f.Draft().Travelers[0]
	assert.Equal(t, "X123", tr.PassportNumber)
	assert.Equal(t, "UK", tr.Nationality)
}
