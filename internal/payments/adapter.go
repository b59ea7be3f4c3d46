package payments

import (
	"context"
	"net/http"
)

// Provider event kinds, normalized across adapters.
const (
	EventChargeSucceeded = "charge.succeeded"
	EventChargeFailed    = "charge.failed"
	EventChargeCanceled  = "charge.canceled"
	EventRefundSucceeded = "refund.succeeded"
)

type ChargeDraft struct {
	PaymentID   string
	OrderID     string
	AmountMinor int64
	Currency    string
	Description string
	ReturnURL   string
}

type ChargeResult struct {
	ProviderRef string
	RedirectURL string
}

type RefundResult struct {
	RefundRef string
}

// WebhookEvent is the provider-agnostic view of a verified callback.
type WebhookEvent struct {
	Provider    string
	EventID     string
	Kind        string
	ProviderRef string
	AmountMinor int64
	Reason      string
}

// Adapter is a stateless provider integration; all durable state lives on
// the Payment aggregate.
type Adapter interface {
	CreateCharge(ctx context.Context, draft ChargeDraft) (*ChargeResult, error)
	Refund(ctx context.Context, providerRef string, amountMinor int64, reason string) (*RefundResult, error)
	VerifyWebhook(raw []byte, headers http.Header) (*WebhookEvent, error)
}
