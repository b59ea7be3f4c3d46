package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodcourt-backoffice/internal/domain"
)

func signPSPA(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestPSPAVerifyWebhook(t *testing.T) {
	adapter := NewPSPA("sk_test", "", time.Second)
	body := []byte(`{"id":"evt_1","type":"charge.succeeded","data":{"intent":"pi_1","amount":1500}}`)

	t.Run("valid signature", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("Pspa-Signature", signPSPA("sk_test", time.Now().Unix(), body))

		event, err := adapter.VerifyWebhook(body, headers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if event.EventID != "evt_1" || event.ProviderRef != "pi_1" || event.Kind != EventChargeSucceeded {
			t.Fatalf("unexpected event: %+v", event)
		}
		if event.AmountMinor != 1500 {
			t.Fatalf("amount = %d, expected 1500", event.AmountMinor)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("Pspa-Signature", signPSPA("sk_other", time.Now().Unix(), body))

		_, err := adapter.VerifyWebhook(body, headers)
		assertCode(t, err, domain.CodeInvalidWebhookSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("Pspa-Signature", signPSPA("sk_test", time.Now().Add(-time.Hour).Unix(), body))

		_, err := adapter.VerifyWebhook(body, headers)
		assertCode(t, err, domain.CodeInvalidWebhookSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := adapter.VerifyWebhook(body, http.Header{})
		assertCode(t, err, domain.CodeInvalidWebhookSignature)
	})

	t.Run("tampered body", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("Pspa-Signature", signPSPA("sk_test", time.Now().Unix(), body))

		tampered := []byte(`{"id":"evt_1","type":"charge.succeeded","data":{"intent":"pi_1","amount":9999}}`)
		_, err := adapter.VerifyWebhook(tampered, headers)
		assertCode(t, err, domain.CodeInvalidWebhookSignature)
	})
}

func TestPSPBVerifyWebhook(t *testing.T) {
	adapter := NewPSPB("shop_1", "whsec", "", time.Second)
	body := []byte(`{"id":"wh_1","event":"payment.succeeded","object":{"id":"pay_1","amount":{"value":2500}}}`)

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(body)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	t.Run("valid signature", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("X-Pspb-Signature", signature)

		event, err := adapter.VerifyWebhook(body, headers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if event.Kind != EventChargeSucceeded || event.ProviderRef != "pay_1" || event.AmountMinor != 2500 {
			t.Fatalf("unexpected event: %+v", event)
		}
	})

	t.Run("bad signature", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("X-Pspb-Signature", "AAAA")

		_, err := adapter.VerifyWebhook(body, headers)
		assertCode(t, err, domain.CodeInvalidWebhookSignature)
	})
}

func TestPSPACreateCharge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/intents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_9","redirect_url":"https://pay.example/pi_9","status":"pending"}`)
	}))
	defer server.Close()

	adapter := NewPSPA("sk_test", server.URL, time.Second)
	result, err := adapter.CreateCharge(context.Background(), ChargeDraft{
		PaymentID:   "pm_1",
		OrderID:     "ord_1",
		AmountMinor: 1200,
		Currency:    "RUB",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProviderRef != "pi_9" || result.RedirectURL != "https://pay.example/pi_9" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPSPACreateChargeServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := NewPSPA("sk_test", server.URL, time.Second)
	_, err := adapter.CreateCharge(context.Background(), ChargeDraft{PaymentID: "pm_1", AmountMinor: 100, Currency: "RUB"})
	assertCode(t, err, domain.CodeProviderUnavailable)
}

func TestPSPBRefund(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/refunds" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, _ := r.BasicAuth()
		if user != "shop_1" || pass != "secret" {
			t.Errorf("unexpected credentials %s:%s", user, pass)
		}
		if r.Header.Get("Idempotence-Key") == "" {
			t.Error("missing idempotence key")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"rf_3"}`)
	}))
	defer server.Close()

	adapter := NewPSPB("shop_1", "secret", server.URL, time.Second)
	result, err := adapter.Refund(context.Background(), "pay_1", 500, "customer request")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RefundRef != "rf_3" {
		t.Fatalf("refund ref = %s, expected rf_3", result.RefundRef)
	}
}

func assertCode(t *testing.T, err error, code domain.Code) {
	t.Helper()
	derr, ok := domain.AsError(err)
	if !ok {
		t.Fatalf("expected taxonomy error, got %v", err)
	}
	if derr.Code != code {
		t.Fatalf("code = %s, expected %s", derr.Code, code)
	}
}
