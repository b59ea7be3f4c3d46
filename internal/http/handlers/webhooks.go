package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/pkg/response"
)

const webhookBodyLimit = 1 << 20

// PaymentWebhook is the unauthenticated provider callback. Signature
// verification is the only gate; replays and stale events get a 200 so the
// provider stops retrying.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	raw, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		response.DomainError(w, domain.Validation("Unreadable webhook body"))
		return
	}

	if err := h.Payments.HandleWebhook(r.Context(), provider, raw, r.Header); err != nil {
		h.Logger.Warn("webhook rejected",
			zap.String("provider", provider), zap.Error(err))
		// A forged signature gets a bare status and nothing else; the
		// response must not tell the sender what check it failed.
		if derr, ok := domain.AsError(err); ok && derr.Code == domain.CodeInvalidWebhookSignature {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		response.DomainError(w, err)
		return
	}
	response.Success(w, map[string]any{"received": true})
}
