package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"foodcourt-backoffice/internal/auth"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/workforce"
	"foodcourt-backoffice/pkg/response"
)

func (h *Handler) requireManageEmployees(w http.ResponseWriter, r *http.Request) (restaurantID string, ok bool) {
	authCtx, ok := caller(w, r)
	if !ok {
		return "", false
	}
	restaurantID = chi.URLParam(r, "restaurantId")

	res, err := h.restaurantResource(r.Context(), authCtx, restaurantID)
	if err != nil {
		response.DomainError(w, err)
		return "", false
	}
	if !auth.Allowed(authCtx.Role, auth.VerbManageEmployees, res) {
		response.DomainError(w, domain.Forbidden("Only the restaurant owner can manage staff"))
		return "", false
	}
	return restaurantID, true
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.requireManageEmployees(w, r)
	if !ok {
		return
	}
	employees, err := h.Workforce.ListEmployees(r.Context(), restaurantID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, employees)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.requireManageEmployees(w, r)
	if !ok {
		return
	}
	var in workforce.EmployeeInput
	if err := decodeJSON(r, &in); err != nil {
		response.DomainError(w, err)
		return
	}
	employee, err := h.Workforce.CreateEmployee(r.Context(), restaurantID, in)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Created(w, employee)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.requireManageEmployees(w, r)
	if !ok {
		return
	}
	var in workforce.EmployeeUpdate
	if err := decodeJSON(r, &in); err != nil {
		response.DomainError(w, err)
		return
	}
	employee, err := h.Workforce.UpdateEmployee(r.Context(), restaurantID, chi.URLParam(r, "employeeId"), in)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, employee)
}

func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.requireManageEmployees(w, r)
	if !ok {
		return
	}
	if err := h.Workforce.DeactivateEmployee(r.Context(), restaurantID, chi.URLParam(r, "employeeId")); err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, map[string]any{"deactivated": true})
}

// CreateInvite mints a one-shot (or multi-use) invite token. The plaintext
// token appears only in this response. Works both nested under a restaurant
// and flat with restaurantId in the body.
func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}

	var in workforce.InviteInput
	if err := decodeJSON(r, &in); err != nil {
		response.DomainError(w, err)
		return
	}
	restaurantID := chi.URLParam(r, "restaurantId")
	if restaurantID == "" {
		restaurantID = in.RestaurantID
	}
	if restaurantID == "" {
		response.DomainError(w, domain.Validation("restaurantId is required"))
		return
	}

	res, err := h.restaurantResource(r.Context(), authCtx, restaurantID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !auth.Allowed(authCtx.Role, auth.VerbCreateInvite, res) {
		response.DomainError(w, domain.Forbidden("Only the restaurant owner can create invites"))
		return
	}

	created, err := h.Workforce.CreateInvite(r.Context(), restaurantID, authCtx.PrincipalID, in)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Created(w, created)
}

func (h *Handler) RevokeInvite(w http.ResponseWriter, r *http.Request) {
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
	if !auth.Allowed(authCtx.Role, auth.VerbCreateInvite, res) {
		response.DomainError(w, domain.Forbidden("Only the restaurant owner can revoke invites"))
		return
	}

	if err := h.Workforce.RevokeInvite(r.Context(), restaurantID, chi.URLParam(r, "inviteId")); err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, map[string]any{"revoked": true})
}

// ConsumeInvite upgrades the calling customer into an employee. Customer
// role only; even the superadmin cannot consume an invite.
func (h *Handler) ConsumeInvite(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}
	if !auth.Allowed(authCtx.Role, auth.VerbConsumeInvite, auth.Resource{}) {
		response.DomainError(w, domain.Forbidden("Only customers can accept an invite"))
		return
	}

	var in workforce.ConsumeInput
	if err := decodeJSON(r, &in); err != nil {
		response.DomainError(w, err)
		return
	}
	employee, err := h.Workforce.ConsumeInvite(r.Context(), authCtx.PrincipalID, in)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Created(w, employee)
}
