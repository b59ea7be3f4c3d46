package payments

import (
	"testing"

	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/events"
)

func TestDecideWebhook(t *testing.T) {
	cases := []struct {
		name    string
		current domain.PaymentStatus
		kind    string
		next    domain.PaymentStatus
		emit    events.Kind
		changed bool
	}{
		{"succeeded settles pending", domain.PaymentPending, EventChargeSucceeded, domain.PaymentCompleted, events.PaymentSettled, true},
		{"failed fails pending", domain.PaymentPending, EventChargeFailed, domain.PaymentFailed, events.PaymentFailed, true},
		{"canceled fails pending", domain.PaymentPending, EventChargeCanceled, domain.PaymentFailed, events.PaymentFailed, true},
		{"refund moves completed", domain.PaymentCompleted, EventRefundSucceeded, domain.PaymentRefunded, events.PaymentRefunded, true},
		{"succeeded replay on completed", domain.PaymentCompleted, EventChargeSucceeded, domain.PaymentCompleted, "", false},
		{"failed after completion is ignored", domain.PaymentCompleted, EventChargeFailed, domain.PaymentCompleted, "", false},
		{"refund on pending is ignored", domain.PaymentPending, EventRefundSucceeded, domain.PaymentPending, "", false},
		{"refund replay on refunded", domain.PaymentRefunded, EventRefundSucceeded, domain.PaymentRefunded, "", false},
		{"anything on failed is ignored", domain.PaymentFailed, EventChargeSucceeded, domain.PaymentFailed, "", false},
		{"unknown kind is ignored", domain.PaymentPending, "charge.mystery", domain.PaymentPending, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, emit, changed := DecideWebhook(tc.current, tc.kind)
			if next != tc.next || emit != tc.emit || changed != tc.changed {
				t.Fatalf("DecideWebhook(%s, %s) = (%s, %s, %v), expected (%s, %s, %v)",
					tc.current, tc.kind, next, emit, changed, tc.next, tc.emit, tc.changed)
			}
		})
	}
}

func TestTerminalPaymentStatus(t *testing.T) {
	if domain.TerminalPaymentStatus(domain.PaymentCompleted) {
		t.Fatal("completed must stay refundable")
	}
	if !domain.TerminalPaymentStatus(domain.PaymentFailed) || !domain.TerminalPaymentStatus(domain.PaymentRefunded) {
		t.Fatal("failed and refunded are terminal")
	}
}
