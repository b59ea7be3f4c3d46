package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/payments"
)

// A forged webhook signature must come back as a bare 400: the body must not
// reveal which check rejected the request.
func TestPaymentWebhookBadSignatureBareResponse(t *testing.T) {
	h := &Handler{
		Logger: zap.NewNop(),
		Payments: &payments.Broker{
			Logger:    zap.NewNop(),
			Providers: map[string]payments.Adapter{"pspa": payments.NewPSPA("sk_test", "", time.Second)},
		},
	}

	body := []byte(`{"id":"evt_1","type":"charge.succeeded","data":{"intent":"pi_1","amount":1500}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhooks/pspa", bytes.NewReader(body))
	req.Header.Set("Pspa-Signature", "t=1,v1=deadbeef")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("provider", "pspa")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.PaymentWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
	got := rec.Body.String()
	if strings.Contains(got, "InvalidWebhookSignature") || strings.Contains(got, "code") {
		t.Fatalf("response body leaks rejection detail: %q", got)
	}
}
