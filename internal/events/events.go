package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Kind string

const (
	OrderCreated       Kind = "order.created"
	OrderStatusChanged Kind = "order.status_changed"
	OrderCancelled     Kind = "order.cancelled"
	PaymentCreated     Kind = "payment.created"
	PaymentSettled     Kind = "payment.settled"
	PaymentFailed      Kind = "payment.failed"
	PaymentRefunded    Kind = "payment.refunded"
	ShiftStarted       Kind = "shift.started"
	ShiftEnded         Kind = "shift.ended"
	ShiftMissed        Kind = "shift.missed"
	InviteConsumed     Kind = "invite.consumed"
)

type Event struct {
	ID            string         `json:"id"`
	Kind          Kind           `json:"kind"`
	AggregateType string         `json:"aggregateType"`
	AggregateID   string         `json:"aggregateId"`
	Payload       map[string]any `json:"payload,omitempty"`
	OccurredAt    time.Time      `json:"occurredAt"`
}

func New(kind Kind, aggregateType, aggregateID string, payload map[string]any) Event {
	return Event{
		ID:            uuid.NewString(),
		Kind:          kind,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       payload,
		OccurredAt:    time.Now().UTC(),
	}
}

// Append writes the event to the outbox inside the caller's transaction, so
// the business write and the event share one commit.
func Append(ctx context.Context, tx pgx.Tx, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		insert into outbox (event_id, kind, aggregate_type, aggregate_id, payload, occurred_at)
		values ($1, $2, $3, $4, $5, $6)
	`, event.ID, string(event.Kind), event.AggregateType, event.AggregateID, payload, event.OccurredAt)
	return err
}
