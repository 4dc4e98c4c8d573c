package flowapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"travelbooking/internal/api"
	"travelbooking/internal/booking"
	"travelbooking/internal/flowstore"
	"travelbooking/internal/journal"
	"travelbooking/internal/session"
	"travelbooking/pkg/travelapi"
)

// EventLister reads a flow's journal.
type EventLister interface {
	ListByFlow(ctx context.Context, flowID string) ([]journal.Event, error)
}

type Handlers struct {
	Client  travelapi.Client
	Flows   *flowstore.Registry
	Journal EventLister
	Log     *slog.Logger
}

type FlowView struct {
	ID             string          `json:"id"`
	State          booking.State   `json:"state"`
	Draft          *booking.Draft  `json:"draft,omitempty"`
	PricePerPerson decimal.Decimal `json:"price_per_person"`
}

func view(e *flowstore.Entry) FlowView {
	v := FlowView{ID: e.ID, State: e.Flow.State(), Draft: e.Flow.Draft()}
	if v.Draft != nil {
		v.PricePerPerson = v.Draft.PricePerPerson()
	}
	return v
}

type CreateRequest struct {
	DestinationID int64 `json:"destination_id"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if req.DestinationID <= 0 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "destination_id is required")
		return
	}

	store := session.New(caller.AccessToken, caller.RefreshToken, nil)
	client := h.Client.WithTokens(store)

	dest, err := client.GetDestination(r.Context(), req.DestinationID)
	if err != nil {
		h.writeUpstreamError(w, err, "destination")
		return
	}
	user, err := client.Profile(r.Context())
	if err != nil {
		h.writeUpstreamError(w, err, "profile")
		return
	}
	store.SetUser(user)

	e := h.Flows.Open(r.Context(), flowstore.OpenRequest{
		Owner:       caller.UserID,
		Destination: toDestination(dest),
		Profile:     store.Profile(),
		Submitter:   booking.NewCoordinator(client, h.logger()),
		Session:     store,
	})
	h.logger().Info("booking flow opened", "flow_id", e.ID, "user_id", caller.UserID, "destination", dest.ID)

	api.WriteJSON(w, http.StatusCreated, view(e))
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, view(e))
}

// PatchFields sets draft-level fields. Values may be JSON strings or numbers; a
// rejected value leaves the draft untouched.
func (h Handlers) PatchFields(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	if _, err := e.Flow.SetFields(fields); err != nil {
		writeFlowError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, view(e))
}

func (h Handlers) PatchTraveler(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid traveler index")
		return
	}
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	if _, err := e.Flow.SetTravelerFields(index, fields); err != nil {
		writeFlowError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, view(e))
}

// Next answers 200 with the flow view whether or not the step advanced; the view's
// state carries validation and submission messages.
func (h Handlers) Next(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	if _, err := e.Flow.Next(r.Context()); err != nil {
		if errors.Is(err, booking.ErrBusy) || errors.Is(err, booking.ErrClosed) {
			writeFlowError(w, err)
			return
		}
		h.logger().Warn("booking submission failed", "flow_id", e.ID, "err", err)
	}
	api.WriteJSON(w, http.StatusOK, view(e))
}

func (h Handlers) Previous(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	if _, err := e.Flow.Previous(); err != nil {
		writeFlowError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, view(e))
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	if err := h.Flows.Close(r.Context(), chi.URLParam(r, "id"), caller.UserID); err != nil {
		writeFlowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	items, err := h.Journal.ListByFlow(r.Context(), e.ID)
	if err != nil {
		h.logger().Error("list flow events failed", "flow_id", e.ID, "err", err)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []journal.Event{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// entry resolves the caller's flow. Verified callers also refresh the flow's
// stored tokens from the request.
func (h Handlers) entry(w http.ResponseWriter, r *http.Request) (*flowstore.Entry, bool) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return nil, false
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return nil, false
	}
	e, err := h.Flows.Get(id, caller.UserID)
	if err != nil {
		writeFlowError(w, err)
		return nil, false
	}
	if e.Session != nil && caller.Verified {
		e.Session.Rotate(caller.AccessToken, caller.RefreshToken)
	}
	return e, true
}

func (h Handlers) logger() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

func (h Handlers) writeUpstreamError(w http.ResponseWriter, err error, what string) {
	var apiErr *travelapi.APIError
	switch {
	case errors.Is(err, travelapi.ErrSessionExpired):
		api.WriteError(w, http.StatusUnauthorized, "SESSION_EXPIRED", travelapi.UserMessage(err, "session expired"))
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", what+" not found")
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", apiErr.Message)
	default:
		h.logger().Error("travel api call failed", "what", what, "err", err)
		api.WriteError(w, http.StatusBadGateway, "UPSTREAM_FAILED", fmt.Sprintf("failed to load %s", what))
	}
}

func writeFlowError(w http.ResponseWriter, err error) {
	var fe booking.FieldError
	switch {
	case errors.Is(err, flowstore.ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking flow not found")
	case errors.Is(err, booking.ErrClosed):
		api.WriteError(w, http.StatusGone, "FLOW_CLOSED", "booking flow closed")
	case errors.Is(err, booking.ErrBusy):
		api.WriteError(w, http.StatusConflict, "BUSY", "booking submission in progress")
	case errors.Is(err, booking.ErrConfirmed):
		api.WriteError(w, http.StatusConflict, "CONFIRMED", "booking already confirmed")
	case errors.Is(err, booking.ErrUnknownField), errors.Is(err, booking.ErrTravelerIndex):
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.As(err, &fe):
		api.WriteFieldErrors(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", fe.Message, map[string]string{fe.Field: fe.Message})
	default:
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return nil, false
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case nil:
			out[k] = ""
		default:
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", fmt.Sprintf("%s must be a string or number", k))
			return nil, false
		}
	}
	return out, true
}

func toDestination(d *travelapi.Destination) booking.Destination {
	out := booking.Destination{ID: d.ID, Name: strings.TrimSpace(d.Name)}
	if d.PricePerPerson.Valid {
		out.PricePerPerson = d.PricePerPerson.Decimal
	}
	return out
}
