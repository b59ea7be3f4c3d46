package payments

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/db"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/events"
)

// HandleWebhook verifies, deduplicates and applies one provider callback.
// A replayed event id and an event the current state cannot act on both
// return nil: the provider only needs a 200 to stop retrying.
func (b *Broker) HandleWebhook(ctx context.Context, provider string, raw []byte, headers http.Header) error {
	adapter, ok := b.Providers[provider]
	if !ok {
		return domain.NotFound("Unknown payment provider")
	}

	event, err := adapter.VerifyWebhook(raw, headers)
	if err != nil {
		return err
	}

	return db.WithSerializableTx(ctx, b.Pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			insert into processed_webhook (provider, provider_event_id, received_at)
			values ($1, $2, $3)
			on conflict (provider, provider_event_id) do nothing
		`, event.Provider, event.EventID, b.now())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			b.Logger.Info("webhook replay ignored",
				zap.String("provider", event.Provider),
				zap.String("eventId", event.EventID))
			return nil
		}

		var paymentID, orderID string
		var status string
		err = tx.QueryRow(ctx, `
			select id, order_id, status from payment
			where provider_ref = $1 for update
		`, event.ProviderRef).Scan(&paymentID, &orderID, &status)
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.NotFound("Payment not found for provider reference")
			}
			return err
		}

		next, emit, changed := DecideWebhook(domain.PaymentStatus(status), event.Kind)
		if !changed {
			b.Logger.Info("webhook had no effect",
				zap.String("paymentId", paymentID),
				zap.String("kind", event.Kind),
				zap.String("status", status))
			return nil
		}

		if _, err := tx.Exec(ctx, `
			update payment set status = $1, updated_at = $2 where id = $3
		`, string(next), b.now(), paymentID); err != nil {
			return err
		}

		if next == domain.PaymentRefunded {
			if _, err := tx.Exec(ctx, `
				insert into refund (id, payment_id, amount_minor, reason, refund_ref, created_at)
				select gen_random_uuid(), $1, $2, $3, $4, $5
				where not exists (select 1 from refund where payment_id = $1)
			`, paymentID, event.AmountMinor, nonEmpty(event.Reason, "Provider-initiated refund"), event.EventID, b.now()); err != nil {
				return err
			}
		}

		return events.Append(ctx, tx, events.New(emit, "payment", paymentID, map[string]any{
			"orderId":  orderID,
			"provider": event.Provider,
			"kind":     event.Kind,
		}))
	})
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
