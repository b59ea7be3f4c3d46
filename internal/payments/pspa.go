package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"foodcourt-backoffice/internal/domain"
)

const pspaSignatureMaxAge = 5 * time.Minute

// PSPA is the payment-intent card provider: the charge call returns a
// redirect URL, settlement arrives on a signed webhook.
type PSPA struct {
	Secret  string
	BaseURL string
	HTTP    *http.Client
}

func NewPSPA(secret, baseURL string, timeout time.Duration) *PSPA {
	if baseURL == "" {
		baseURL = "https://api.psp-a.example"
	}
	return &PSPA{
		Secret:  secret,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type pspaIntentResponse struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
	Status      string `json:"status"`
}

func (p *PSPA) CreateCharge(ctx context.Context, draft ChargeDraft) (*ChargeResult, error) {
	body := map[string]any{
		"amount":      draft.AmountMinor,
		"currency":    draft.Currency,
		"reference":   draft.PaymentID,
		"description": draft.Description,
		"return_url":  draft.ReturnURL,
	}
	var resp pspaIntentResponse
	if err := p.call(ctx, http.MethodPost, "/v1/intents", body, &resp); err != nil {
		return nil, err
	}
	return &ChargeResult{ProviderRef: resp.ID, RedirectURL: resp.RedirectURL}, nil
}

func (p *PSPA) Refund(ctx context.Context, providerRef string, amountMinor int64, reason string) (*RefundResult, error) {
	body := map[string]any{
		"intent": providerRef,
		"amount": amountMinor,
		"reason": reason,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := p.call(ctx, http.MethodPost, "/v1/refunds", body, &resp); err != nil {
		return nil, err
	}
	return &RefundResult{RefundRef: resp.ID}, nil
}

func (p *PSPA) call(ctx context.Context, method, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.Secret)

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return domain.ProviderUnavailable("Card provider A is unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return domain.ProviderUnavailable(fmt.Sprintf("Card provider A responded %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return domain.Validation("Card provider A rejected the request")
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type pspaWebhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Intent string `json:"intent"`
		Amount int64  `json:"amount"`
		Reason string `json:"reason"`
	} `json:"data"`
}

// VerifyWebhook checks the "t=<unix>,v1=<hex>" signature header: an HMAC of
// "<t>.<raw>" under the provider secret, plus a freshness window.
func (p *PSPA) VerifyWebhook(raw []byte, headers http.Header) (*WebhookEvent, error) {
	header := headers.Get("Pspa-Signature")
	if header == "" {
		return nil, domain.InvalidWebhookSignature()
	}

	var ts string
	var sig string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			sig = kv[1]
		}
	}
	if ts == "" || sig == "" {
		return nil, domain.InvalidWebhookSignature()
	}

	issued, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || time.Since(time.Unix(issued, 0)) > pspaSignatureMaxAge {
		return nil, domain.InvalidWebhookSignature()
	}

	mac := hmac.New(sha256.New, []byte(p.Secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(raw)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sig))) {
		return nil, domain.InvalidWebhookSignature()
	}

	var payload pspaWebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, domain.InvalidWebhookSignature()
	}
	if payload.ID == "" || payload.Data.Intent == "" {
		return nil, domain.InvalidWebhookSignature()
	}

	return &WebhookEvent{
		Provider:    "pspa",
		EventID:     payload.ID,
		Kind:        payload.Type,
		ProviderRef: payload.Data.Intent,
		AmountMinor: payload.Data.Amount,
		Reason:      payload.Data.Reason,
	}, nil
}
