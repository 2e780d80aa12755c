package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type RecordGatewayEventParams struct {
	EventID   string
	EventType string
	OrderID   pgtype.UUID
}

const recordGatewayEvent = `
INSERT INTO gateway_events (event_id, event_type, order_id)
VALUES ($1, $2, $3)
RETURNING id, event_id, event_type, order_id, received_at`

// RecordGatewayEvent persists a webhook delivery. A unique violation on
// event_id means the event was already processed; callers must treat that as
// a replay, not a failure.
func (q *Queries) RecordGatewayEvent(ctx context.Context, arg RecordGatewayEventParams) (GatewayEvent, error) {
	var e GatewayEvent
	err := q.db.QueryRow(ctx, recordGatewayEvent,
		arg.EventID, arg.EventType, arg.OrderID,
	).Scan(&e.ID, &e.EventID, &e.EventType, &e.OrderID, &e.ReceivedAt)
	return e, err
}
