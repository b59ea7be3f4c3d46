package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"foodcourt-backoffice/internal/auth"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/payments"
	"foodcourt-backoffice/pkg/response"
)

type createPaymentRequest struct {
	OrderID string `json:"orderId"`
	Method  string `json:"method"`
}

// CreatePayment starts a card payment for an order. Cash and terminal go
// through their own staff-only endpoints.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}

	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.DomainError(w, err)
		return
	}

	method := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method)))
	if method != domain.MethodCardPSPA && method != domain.MethodCardPSPB {
		response.DomainError(w, domain.Validation("method must be CARD_PSP_A or CARD_PSP_B"))
		return
	}

	scope, err := h.orderScope(r.Context(), authCtx, req.OrderID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !auth.Allowed(authCtx.Role, auth.VerbCreatePayment, scope.Resource) {
		response.DomainError(w, domain.Forbidden("You cannot pay for this order"))
		return
	}

	payment, err := h.Payments.CreateAsync(r.Context(), req.OrderID, method)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Created(w, payment)
}

// ProcessCashPayment records an at-the-counter cash payment.
func (h *Handler) ProcessCashPayment(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}

	var in payments.CashInput
	if err := decodeJSON(r, &in); err != nil {
		response.DomainError(w, err)
		return
	}
	in.ProcessedByPrincipal = authCtx.PrincipalID

	scope, err := h.orderScope(r.Context(), authCtx, in.OrderID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !auth.Allowed(authCtx.Role, auth.VerbProcessCashTerminal, scope.Resource) {
		response.DomainError(w, domain.Forbidden("Only restaurant staff can take cash payments"))
		return
	}

	payment, err := h.Payments.ProcessCash(r.Context(), in)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Created(w, payment)
}

// ProcessTerminalPayment records a payment captured on a physical terminal.
func (h *Handler) ProcessTerminalPayment(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}

	var in payments.TerminalInput
	if err := decodeJSON(r, &in); err != nil {
		response.DomainError(w, err)
		return
	}
	in.ProcessedByPrincipal = authCtx.PrincipalID

	scope, err := h.orderScope(r.Context(), authCtx, in.OrderID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !auth.Allowed(authCtx.Role, auth.VerbProcessCashTerminal, scope.Resource) {
		response.DomainError(w, domain.Forbidden("Only restaurant staff can take terminal payments"))
		return
	}

	payment, err := h.Payments.ProcessTerminal(r.Context(), in)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Created(w, payment)
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}
	paymentID := chi.URLParam(r, "paymentId")

	orderID, err := h.paymentOrderID(r, paymentID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	scope, err := h.orderScope(r.Context(), authCtx, orderID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !auth.Allowed(authCtx.Role, auth.VerbReadOrder, scope.Resource) {
		response.DomainError(w, domain.Forbidden("You cannot view this payment"))
		return
	}

	payment, refunds, err := h.Payments.Get(r.Context(), paymentID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, map[string]any{"payment": payment, "refunds": refunds})
}

type refundRequest struct {
	AmountMinor int64  `json:"amountMinor"`
	Reason      string `json:"reason"`
}

// RefundPayment refunds part or all of a completed payment. Owner scope only.
func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}
	paymentID := chi.URLParam(r, "paymentId")

	var req refundRequest
	if err := decodeJSON(r, &req); err != nil {
		response.DomainError(w, err)
		return
	}

	orderID, err := h.paymentOrderID(r, paymentID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	scope, err := h.orderScope(r.Context(), authCtx, orderID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !auth.Allowed(authCtx.Role, auth.VerbRefundPayment, scope.Resource) {
		response.DomainError(w, domain.Forbidden("Only the restaurant owner can issue refunds"))
		return
	}

	refund, err := h.Payments.Refund(r.Context(), paymentID, req.AmountMinor, req.Reason)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Created(w, refund)
}

// Payouts rolls up settled payments over [from, to). Defaults to the last
// 30 days when the window is not given.
func (h *Handler) Payouts(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}
	restaurantID := chi.URLParam(r, "restaurantId")

	res, err := h.restaurantResource(r.Context(), authCtx, restaurantID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !auth.Allowed(authCtx.Role, auth.VerbReadPayouts, res) {
		response.DomainError(w, domain.Forbidden("Only the restaurant owner can view payouts"))
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if parsed, err := time.Parse(time.RFC3339, r.URL.Query().Get("from")); err == nil {
		from = parsed
	}
	if parsed, err := time.Parse(time.RFC3339, r.URL.Query().Get("to")); err == nil {
		to = parsed
	}
	if !from.Before(to) {
		response.DomainError(w, domain.Validation("from must be before to"))
		return
	}

	summary, err := h.Payments.Payout(r.Context(), restaurantID, from, to)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, summary)
}

func (h *Handler) paymentOrderID(r *http.Request, paymentID string) (string, error) {
	var orderID string
	err := h.DB.QueryRow(r.Context(), `select order_id from payment where id = $1`, paymentID).Scan(&orderID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", domain.NotFound("Payment not found")
		}
		return "", err
	}
	return orderID, nil
}
