package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"foodcourt-backoffice/internal/auth"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/workforce"
	"foodcourt-backoffice/pkg/response"
)

func (h *Handler) ScheduleShift(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.requireManageEmployees(w, r)
	if !ok {
		return
	}
	var in workforce.ScheduleInput
	if err := decodeJSON(r, &in); err != nil {
		response.DomainError(w, err)
		return
	}
	shift, err := h.Workforce.ScheduleShift(r.Context(), restaurantID, in)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Created(w, shift)
}

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.requireManageEmployees(w, r)
	if !ok {
		return
	}

	filter := workforce.ShiftFilter{
		EmployeeID: r.URL.Query().Get("employeeId"),
		Status:     domain.ShiftStatus(r.URL.Query().Get("status")),
	}
	if from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to")); err == nil {
		filter.To = &to
	}

	shifts, err := h.Workforce.ListShifts(r.Context(), restaurantID, filter)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, shifts)
}

type clockRequest struct {
	RestaurantID string `json:"restaurantId"`
	EmployeeID   string `json:"employeeId"`
}

// requireClockScope authorizes clock-in/out: the owner for any employee,
// an employee only for their own record. The target comes from the URL when
// nested under a restaurant, otherwise from the JSON body.
func (h *Handler) requireClockScope(w http.ResponseWriter, r *http.Request) (restaurantID, employeeID string, ok bool) {
	authCtx, ok := caller(w, r)
	if !ok {
		return "", "", false
	}
	restaurantID = chi.URLParam(r, "restaurantId")
	employeeID = chi.URLParam(r, "employeeId")
	if restaurantID == "" || employeeID == "" {
		var req clockRequest
		if err := decodeJSON(r, &req); err != nil {
			response.DomainError(w, err)
			return "", "", false
		}
		restaurantID, employeeID = req.RestaurantID, req.EmployeeID
	}
	if restaurantID == "" || employeeID == "" {
		response.DomainError(w, domain.Validation("restaurantId and employeeId are required"))
		return "", "", false
	}

	res, err := h.restaurantResource(r.Context(), authCtx, restaurantID)
	if err != nil {
		response.DomainError(w, err)
		return "", "", false
	}
	res.SelfTarget, err = h.employeeSelfTarget(r.Context(), authCtx, restaurantID, employeeID)
	if err != nil {
		response.DomainError(w, err)
		return "", "", false
	}
	if !auth.Allowed(authCtx.Role, auth.VerbClockInOut, res) {
		response.DomainError(w, domain.Forbidden("You cannot operate this employee's clock"))
		return "", "", false
	}
	return restaurantID, employeeID, true
}

func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	restaurantID, employeeID, ok := h.requireClockScope(w, r)
	if !ok {
		return
	}
	shift, err := h.Workforce.ClockIn(r.Context(), restaurantID, employeeID, h.restaurantTimezone(r.Context(), restaurantID))
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, shift)
}

func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	restaurantID, employeeID, ok := h.requireClockScope(w, r)
	if !ok {
		return
	}
	result, err := h.Workforce.ClockOut(r.Context(), restaurantID, employeeID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, result)
}

// Payroll rolls up completed shifts over [from, to). Defaults to the last
// 30 days when the window is not given.
func (h *Handler) Payroll(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.requireManageEmployees(w, r)
	if !ok {
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

	summary, err := h.Workforce.Payroll(r.Context(), restaurantID, from, to)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, summary)
}
