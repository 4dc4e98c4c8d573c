package journal

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"travelbooking/internal/booking"
	"travelbooking/pkg/db"
)

// Repository writes booking flow events to Postgres.
type Repository struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.Default()
	}
	return &Repository{db: pool, log: log}
}

func Insert(ctx context.Context, tx pgx.Tx, flowID, eventType, summary, step string, occurredAt time.Time, data any) error {
	var s *string
	if data != nil {
		b, _ := json.Marshal(data)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO flow_events (flow_id, event_type, summary, step, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err := tx.Exec(ctx, q, flowID, eventType, summary, step, occurredAt, s)
	return err
}

// Observe records ev. Journal failures are logged, never surfaced to the flow.
func (r *Repository) Observe(ctx context.Context, ev booking.Event) {
	if ev.FlowID == "" {
		return
	}
	data := ev.Data
	if ev.From != "" && ev.From != ev.Step {
		data = withKey(data, "from", string(ev.From))
	}
	if ev.Duration > 0 {
		data = withKey(data, "duration_ms", ev.Duration.Milliseconds())
	}
	var payload any
	if len(data) > 0 {
		payload = data
	}

	// Outlives the request context.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return Insert(ctx, tx, ev.FlowID, string(ev.Type), ev.Summary, string(ev.Step), ev.OccurredAt, payload)
	})
	if err != nil {
		r.log.Error("journal insert failed", "flow_id", ev.FlowID, "event_type", ev.Type, "err", err)
	}
}

func withKey(m map[string]any, k string, v any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for key, val := range m {
		out[key] = val
	}
	out[k] = v
	return out
}
