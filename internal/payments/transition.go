package payments

import (
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/events"
)

// DecideWebhook maps a verified provider event onto the payment state set.
// A replay against a state the event cannot act on is a no-op, never an
// error: webhook handlers must stay idempotent.
func DecideWebhook(current domain.PaymentStatus, kind string) (next domain.PaymentStatus, emit events.Kind, changed bool) {
	switch kind {
	case EventChargeSucceeded:
		if current == domain.PaymentPending {
			return domain.PaymentCompleted, events.PaymentSettled, true
		}
	case EventChargeFailed, EventChargeCanceled:
		if current == domain.PaymentPending {
			return domain.PaymentFailed, events.PaymentFailed, true
		}
	case EventRefundSucceeded:
		if current == domain.PaymentCompleted {
			return domain.PaymentRefunded, events.PaymentRefunded, true
		}
	}
	return current, "", false
}
