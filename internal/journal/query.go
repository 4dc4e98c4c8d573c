package journal

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Event struct {
	ID         string `json:"id"`
	FlowID     string `json:"flowId"`
	EventType  string `json:"eventType"`
	Summary    string `json:"summary"`
	Step       string `json:"step"`
	OccurredAt string `json:"occurredAt"`
	Data       any    `json:"data,omitempty"`
}

func ListByFlow(ctx context.Context, db *pgxpool.Pool, flowID string) ([]Event, error) {
	const q = `
SELECT id::text, flow_id::text, event_type, summary, step, occurred_at::text, COALESCE(data, '{}'::jsonb)
FROM flow_events
WHERE flow_id = $1
ORDER BY occurred_at ASC, created_at ASC
`
	rows, err := db.Query(ctx, q, flowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.FlowID, &e.EventType, &e.Summary, &e.Step, &e.OccurredAt, &e.Data); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) ListByFlow(ctx context.Context, flowID string) ([]Event, error) {
	return ListByFlow(ctx, r.db, flowID)
}
