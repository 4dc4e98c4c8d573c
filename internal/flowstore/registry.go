package flowstore

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"travelbooking/internal/booking"
	"travelbooking/internal/session"
)

var ErrNotFound = errors.New("booking flow not found")

// Entry is a registered flow and the user it belongs to.
type Entry struct {
	ID    string
	Owner int64
	Flow  *booking.Flow
	// Session carries the owner's travel API tokens for the submission.
	Session  *session.Store
	Opened   time.Time
	lastSeen time.Time
}

type OpenRequest struct {
	Owner       int64
	Destination booking.Destination
	Profile     booking.Profile
	Submitter   booking.Submitter
	Session     *session.Store
	Options     []booking.Option
}

// Registry keeps the in-memory booking flows of this process.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry

	observer booking.Observer
	log      *slog.Logger
	now      func() time.Time
}

func New(observer booking.Observer, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		entries:  map[string]*Entry{},
		observer: observer,
		log:      log,
		now:      time.Now,
	}
}

// Open starts a flow for req.Owner and registers it under a fresh id.
func (r *Registry) Open(ctx context.Context, req OpenRequest) *Entry {
	id := uuid.NewString()
	now := r.now()

	base := []booking.Option{
		booking.WithID(id),
		booking.WithLogger(r.log.With("flow_id", id)),
	}
	if r.observer != nil {
		base = append(base, booking.WithObserver(r.observer))
	}
	e := &Entry{
		ID:       id,
		Owner:    req.Owner,
		Flow:     booking.NewFlow(req.Destination, req.Profile, req.Submitter, append(base, req.Options...)...),
		Session:  req.Session,
		Opened:   now,
		lastSeen: now,
	}

	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.Observe(ctx, booking.Event{
			FlowID:     id,
			Type:       booking.EventFlowOpened,
			Step:       booking.StepDates,
			Summary:    "flow opened",
			OccurredAt: now.UTC(),
			Data:       map[string]any{"destination": req.Destination.ID, "owner": req.Owner},
		})
	}
	return e
}

// Get returns the flow and marks it as used. Flows of other owners are reported
// as missing.
func (r *Registry) Get(id string, owner int64) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.Owner != owner {
		return nil, ErrNotFound
	}
	e.lastSeen = r.now()
	return e, nil
}

// Close discards the flow and its draft. A flow with a submission in flight stays
// registered and ErrBusy is returned.
func (r *Registry) Close(ctx context.Context, id string, owner int64) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok || e.Owner != owner {
		return ErrNotFound
	}

	if err := e.Flow.Close(ctx); err != nil {
		return err
	}
	r.forget(e)
	return nil
}

// Sweep closes flows idle for longer than idle and returns how many went away.
// Flows with a submission in flight are left alone.
func (r *Registry) Sweep(ctx context.Context, idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Entry
	for _, e := range r.entries {
		if e.lastSeen.After(cutoff) {
			continue
		}
		stale = append(stale, e)
	}
	r.mu.Unlock()

	closed := 0
	for _, e := range stale {
		if err := e.Flow.Close(ctx); err != nil {
			r.log.Debug("idle flow kept", "flow_id", e.ID, "err", err)
			continue
		}
		r.forget(e)
		closed++
	}
	if closed > 0 {
		r.log.Info("swept idle booking flows", "count", closed)
	}
	return closed
}

func (r *Registry) forget(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[e.ID] == e {
		delete(r.entries, e.ID)
	}
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(ctx, idle)
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
