package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"foodcourt-backoffice/internal/domain"
)

// PSPB is the shop-credential card provider: basic auth with shop id and
// secret, an idempotence key per mutation, redirect confirmation flow.
type PSPB struct {
	ShopID  string
	Secret  string
	BaseURL string
	HTTP    *http.Client
}

func NewPSPB(shopID, secret, baseURL string, timeout time.Duration) *PSPB {
	if baseURL == "" {
		baseURL = "https://api.psp-b.example"
	}
	return &PSPB{
		ShopID:  shopID,
		Secret:  secret,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type pspbPaymentResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Confirmation struct {
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
}

func (p *PSPB) CreateCharge(ctx context.Context, draft ChargeDraft) (*ChargeResult, error) {
	body := map[string]any{
		"amount": map[string]any{
			"value":    draft.AmountMinor,
			"currency": draft.Currency,
		},
		"capture":     true,
		"description": draft.Description,
		"metadata":    map[string]any{"paymentId": draft.PaymentID},
		"confirmation": map[string]any{
			"type":       "redirect",
			"return_url": draft.ReturnURL,
		},
	}
	var resp pspbPaymentResponse
	if err := p.call(ctx, http.MethodPost, "/v3/payments", body, &resp); err != nil {
		return nil, err
	}
	return &ChargeResult{ProviderRef: resp.ID, RedirectURL: resp.Confirmation.ConfirmationURL}, nil
}

func (p *PSPB) Refund(ctx context.Context, providerRef string, amountMinor int64, reason string) (*RefundResult, error) {
	body := map[string]any{
		"payment_id":  providerRef,
		"amount":      map[string]any{"value": amountMinor},
		"description": reason,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := p.call(ctx, http.MethodPost, "/v3/refunds", body, &resp); err != nil {
		return nil, err
	}
	return &RefundResult{RefundRef: resp.ID}, nil
}

func (p *PSPB) call(ctx context.Context, method, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotence-Key", uuid.NewString())
	req.SetBasicAuth(p.ShopID, p.Secret)

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return domain.ProviderUnavailable("Card provider B is unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return domain.ProviderUnavailable(fmt.Sprintf("Card provider B responded %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return domain.Validation("Card provider B rejected the request")
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type pspbWebhookPayload struct {
	ID     string `json:"id"`
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Amount struct {
			Value int64 `json:"value"`
		} `json:"amount"`
		CancellationDetails struct {
			Reason string `json:"reason"`
		} `json:"cancellation_details"`
	} `json:"object"`
}

// VerifyWebhook checks the base64 HMAC-SHA256 of the raw body carried in the
// X-Pspb-Signature header.
func (p *PSPB) VerifyWebhook(raw []byte, headers http.Header) (*WebhookEvent, error) {
	sig := strings.TrimSpace(headers.Get("X-Pspb-Signature"))
	if sig == "" {
		return nil, domain.InvalidWebhookSignature()
	}
	mac := hmac.New(sha256.New, []byte(p.Secret))
	mac.Write(raw)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return nil, domain.InvalidWebhookSignature()
	}

	var payload pspbWebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, domain.InvalidWebhookSignature()
	}
	if payload.ID == "" || payload.Object.ID == "" {
		return nil, domain.InvalidWebhookSignature()
	}

	kind := ""
	switch payload.Event {
	case "payment.succeeded":
		kind = EventChargeSucceeded
	case "payment.canceled":
		kind = EventChargeCanceled
	case "refund.succeeded":
		kind = EventRefundSucceeded
	default:
		kind = payload.Event
	}

	return &WebhookEvent{
		Provider:    "pspb",
		EventID:     payload.ID,
		Kind:        kind,
		ProviderRef: payload.Object.ID,
		AmountMinor: payload.Object.Amount.Value,
		Reason:      payload.Object.CancellationDetails.Reason,
	}, nil
}
