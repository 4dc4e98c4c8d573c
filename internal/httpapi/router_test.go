package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelbooking/internal/booking"
	"travelbooking/internal/flowapi"
	"travelbooking/internal/flowstore"
	"travelbooking/internal/metrics"
	"travelbooking/pkg/config"
	"travelbooking/pkg/travelapi"
)

const secret = "test-secret"

// fakeTravelAPI serves the endpoints a flow touches. onBooking, if set, runs after
// a booking is accepted and before the reply is written.
func fakeTravelAPI(t *testing.T, onBooking func()) *httptest.Server {
	t.Helper()
	mux := chi.NewRouter()
	mux.Get("/destinations/3/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":3,"name":"Santorini","city":"Oia","country":"Greece","price_per_person":"1850.00"}`))
	})
	mux.Get("/destinations/404/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found."}`))
	})
	mux.Get("/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":5,"email":"ada@example.com","first_name":"","last_name":"","name":"Ada Lovelace"}`))
	})
	mux.Post("/bookings/", func(w http.ResponseWriter, r *http.Request) {
		var req travelapi.CreateBookingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(3), req.Destination)
		assert.Len(t, req.Travelers, 2)
		if onBooking != nil {
			onBooking()
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"booking":{"id":1,"booking_id":"TT5D1E0C77","status":"pending","total_price":"3700.00"}}`))
	})
	return httptest.NewServer(mux)
}

type harness struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

func newHarnessWith(t *testing.T, onBooking func()) *harness {
	t.Helper()
	upstream := fakeTravelAPI(t, onBooking)
	t.Cleanup(upstream.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	cfg := config.Config{SessionJWTSecret: secret, FrontendAllowedOrigins: []string{"http://localhost:3000"}}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, travelapi.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           5,
		TokenType:        "access",
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	return &harness{
		t: t,
		handler: NewRouter(Dependencies{
			Cfg:      cfg,
			Client:   travelapi.New(upstream.URL, 2*time.Second, nil),
			Flows:    flowstore.New(m, log),
			Gatherer: reg,
			Log:      log,
		}),
		token: tok,
	}
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	return h.doContext(context.Background(), method, path, body)
}

func (h *harness) doContext(ctx context.Context, method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) flowapi.FlowView {
	t.Helper()
	var v flowapi.FlowView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRouter_BookingFlowEndToEnd(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/v1/flows", map[string]any{"destination_id": 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v := decodeView(t, rec)
	id := v.ID
	assert.Equal(t, booking.StepDates, v.State.Step)
	require.NotNil(t, v.Draft)
	assert.Equal(t, "Ada", v.Draft.Travelers[0].FirstName)
	assert.Equal(t, "Lovelace", v.Draft.Travelers[0].LastName)
	assert.Equal(t, "ada@example.com", v.Draft.PrimaryContactEmail)
	assert.Equal(t, "1850", v.PricePerPerson.String())

	rec = h.do(http.MethodPost, "/v1/flows/"+id+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeView(t, rec)
	assert.Equal(t, booking.StepDates, v.State.Step)
	assert.Equal(t, "Please select both departure and return dates", v.State.LastError)

	departure := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	ret := time.Now().AddDate(0, 1, 7).Format("2006-01-02")
	rec = h.do(http.MethodPatch, "/v1/flows/"+id+"/fields", map[string]any{
		"departure_date":      departure,
		"return_date":         ret,
		"number_of_travelers": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v = decodeView(t, rec)
	assert.Len(t, v.Draft.Travelers, 2)
	assert.Equal(t, "3700", v.State.Total.String())

	rec = h.do(http.MethodPost, "/v1/flows/"+id+"/next", nil)
	assert.Equal(t, booking.StepTravelers, decodeView(t, rec).State.Step)

	for i, tr := range []map[string]any{
		{"date_of_birth": "1815-12-10", "nationality": "UK"},
		{"first_name": "Charles", "last_name": "Babbage", "email": "cb@example.com", "date_of_birth": "1791-12-26", "nationality": "UK"},
	} {
		rec = h.do(http.MethodPatch, "/v1/flows/"+id+"/travelers/"+strconv.Itoa(i), tr)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = h.do(http.MethodPatch, "/v1/flows/"+id+"/travelers/0", map[string]any{"nationality": "Atlantis"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "travelers[0].nationality")

	rec = h.do(http.MethodPost, "/v1/flows/"+id+"/next", nil)
	assert.Equal(t, booking.StepContact, decodeView(t, rec).State.Step)

	rec = h.do(http.MethodPatch, "/v1/flows/"+id+"/fields", map[string]any{
		"emergency_contact_name":  "Annabella",
		"emergency_contact_phone": "+44 20 7946 0000",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/v1/flows/"+id+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeView(t, rec)
	assert.Equal(t, booking.StepConfirmation, v.State.Step)
	require.NotNil(t, v.State.Confirmation)
	assert.Equal(t, "TT5D1E0C77", v.State.Confirmation.BookingID)

	rec = h.do(http.MethodPatch, "/v1/flows/"+id+"/fields", map[string]any{"special_requests": "late"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodGet, "/v1/flows/"+id+"/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())

	rec = h.do(http.MethodDelete, "/v1/flows/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(http.MethodGet, "/v1/flows/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `travelbooking_booking_submissions_total{outcome="confirmed"} 1`)
	assert.Contains(t, rec.Body.String(), "travelbooking_flows_active 0")
}

func TestRouter_Errors(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/flows/abc", nil)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/v1/flows/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPost, "/v1/flows", map[string]any{"destination_id": 404})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPost, "/v1/flows", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/v1/flows", map[string]any{"destination_id": 3})
	id := decodeView(t, rec).ID
	rec = h.do(http.MethodPatch, "/v1/flows/"+id+"/fields", map[string]any{"coupon": "FREE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(http.MethodPatch, "/v1/flows/"+id+"/travelers/4", map[string]any{"first_name": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/flows", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

// openAtContact opens a two-traveler flow and fills it up to the contact step.
func (h *harness) openAtContact() string {
	t := h.t
	t.Helper()
	rec := h.do(http.MethodPost, "/v1/flows", map[string]any{"destination_id": 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeView(t, rec).ID

	rec = h.do(http.MethodPatch, "/v1/flows/"+id+"/fields", map[string]any{
		"departure_date":      time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
		"return_date":         time.Now().AddDate(0, 1, 7).Format("2006-01-02"),
		"number_of_travelers": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, booking.StepTravelers, decodeView(t, h.do(http.MethodPost, "/v1/flows/"+id+"/next", nil)).State.Step)

	for i, tr := range []map[string]any{
		{"date_of_birth": "1815-12-10", "nationality": "UK"},
		{"first_name": "Charles", "last_name": "Babbage", "email": "cb@example.com", "date_of_birth": "1791-12-26", "nationality": "UK"},
	} {
		rec = h.do(http.MethodPatch, "/v1/flows/"+id+"/travelers/"+strconv.Itoa(i), tr)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	require.Equal(t, booking.StepContact, decodeView(t, h.do(http.MethodPost, "/v1/flows/"+id+"/next", nil)).State.Step)

	rec = h.do(http.MethodPatch, "/v1/flows/"+id+"/fields", map[string]any{
		"emergency_contact_name":  "Annabella",
		"emergency_contact_phone": "+44 20 7946 0000",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return id
}

func TestRouter_SubmissionSurvivesClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var created atomic.Int32
	h := newHarnessWith(t, func() {
		created.Add(1)
		cancel()
		time.Sleep(100 * time.Millisecond)
	})
	id := h.openAtContact()

	h.doContext(ctx, http.MethodPost, "/v1/flows/"+id+"/next", nil)
	require.ErrorIs(t, ctx.Err(), context.Canceled)

	v := decodeView(t, h.do(http.MethodGet, "/v1/flows/"+id, nil))
	assert.Equal(t, booking.StepConfirmation, v.State.Step)
	assert.Empty(t, v.State.LastError)
	require.NotNil(t, v.State.Confirmation)
	assert.Equal(t, "TT5D1E0C77", v.State.Confirmation.BookingID)
	assert.Equal(t, int32(1), created.Load())
}

func TestRouter_RejectedPatchLeavesDraftUntouched(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/v1/flows", map[string]any{"destination_id": 3})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeView(t, rec).ID

	rec = h.do(http.MethodPatch, "/v1/flows/"+id+"/fields", map[string]any{
		"departure_date": "2030-01-01",
		"return_date":    "soon",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(http.MethodPatch, "/v1/flows/"+id+"/travelers/0", map[string]any{
		"first_name":  "Augusta",
		"nationality": "Atlantis",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	v := decodeView(t, h.do(http.MethodGet, "/v1/flows/"+id, nil))
	assert.Empty(t, v.Draft.DepartureDate)
	assert.Equal(t, "Ada", v.Draft.Travelers[0].FirstName)
}
