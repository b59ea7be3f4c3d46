package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"foodcourt-backoffice/internal/auth"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/orders"
	"foodcourt-backoffice/pkg/response"
)

// CreateOrder places a new order. Customers get their principal pinned to
// the order so self-service reads and cancels can be scoped later.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}

	var in orders.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		response.DomainError(w, err)
		return
	}
	if authCtx.Role == domain.RoleCustomer {
		principalID := authCtx.PrincipalID
		in.CustomerPrincipalID = &principalID
	}

	order, err := h.Orders.Create(r.Context(), in)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Created(w, order)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "orderId")

	scope, err := h.orderScope(r.Context(), authCtx, orderID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !auth.Allowed(authCtx.Role, auth.VerbReadOrder, scope.Resource) {
		response.DomainError(w, domain.Forbidden("You cannot view this order"))
		return
	}

	order, err := h.Orders.Get(r.Context(), orderID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, order)
}

// ListRestaurantOrders serves the back-office order board: optional status
// and local-date (YYYYMMDD) filters.
func (h *Handler) ListRestaurantOrders(w http.ResponseWriter, r *http.Request) {
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
	if !auth.Allowed(authCtx.Role, auth.VerbReadOrder, res) {
		response.DomainError(w, domain.Forbidden("You cannot view orders for this restaurant"))
		return
	}

	list, err := h.Orders.List(r.Context(), orders.ListFilter{
		RestaurantID: restaurantID,
		Status:       r.URL.Query().Get("status"),
		LocalDate:    r.URL.Query().Get("date"),
	})
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, list)
}

type transitionRequest struct {
	Status           string `json:"status"`
	EstimatedMinutes *int   `json:"estimatedMinutes,omitempty"`
}

func (h *Handler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "orderId")

	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.DomainError(w, err)
		return
	}

	scope, err := h.orderScope(r.Context(), authCtx, orderID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !auth.Allowed(authCtx.Role, auth.VerbTransitionOrder, scope.Resource) {
		response.DomainError(w, domain.Forbidden("You cannot change this order's status"))
		return
	}

	to := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	order, err := h.Orders.Transition(r.Context(), orderID, to, req.EstimatedMinutes)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, order)
}

type cancelRequest struct {
	Reason string `json:"reason"`
	Refund bool   `json:"refund"`
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "orderId")

	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		response.DomainError(w, err)
		return
	}

	scope, err := h.orderScope(r.Context(), authCtx, orderID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !auth.Allowed(authCtx.Role, auth.VerbCancelOrder, scope.Resource) {
		response.DomainError(w, domain.Forbidden("You cannot cancel this order"))
		return
	}

	order, err := h.Orders.Cancel(r.Context(), orderID, req.Reason, req.Refund)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, order)
}

type bulkTransitionRequest struct {
	OrderIDs []string `json:"orderIds"`
	Status   string   `json:"status"`
}

// BulkTransitionOrders applies one target status to many orders. The scope
// check runs per order; results are reported per order.
func (h *Handler) BulkTransitionOrders(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}

	var req bulkTransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.DomainError(w, err)
		return
	}
	if len(req.OrderIDs) == 0 {
		response.DomainError(w, domain.Validation("orderIds must not be empty"))
		return
	}
	if len(req.OrderIDs) > 100 {
		response.DomainError(w, domain.Validation("At most 100 orders per bulk request"))
		return
	}

	to := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	results := make([]orders.BulkResult, 0, len(req.OrderIDs))
	allowedIDs := make([]string, 0, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		scope, err := h.orderScope(r.Context(), authCtx, id)
		if err != nil {
			results = append(results, bulkFailure(id, err))
			continue
		}
		if !auth.Allowed(authCtx.Role, auth.VerbTransitionOrder, scope.Resource) {
			results = append(results, orders.BulkResult{
				OrderID: id, OK: false,
				Code:    string(domain.CodeForbidden),
				Message: "You cannot change this order's status",
			})
			continue
		}
		allowedIDs = append(allowedIDs, id)
	}

	results = append(results, h.Orders.BulkTransition(r.Context(), allowedIDs, to)...)
	response.Success(w, map[string]any{"results": results})
}

func bulkFailure(orderID string, err error) orders.BulkResult {
	result := orders.BulkResult{
		OrderID: orderID, OK: false,
		Code:    string(domain.CodeInternal),
		Message: "Unexpected error",
	}
	if derr, ok := domain.AsError(err); ok {
		result.Code = string(derr.Code)
		result.Message = derr.Message
	}
	return result
}
