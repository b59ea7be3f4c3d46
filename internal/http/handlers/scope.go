package handlers

import (
	"context"

	"github.com/jackc/pgx/v5"

	"foodcourt-backoffice/internal/auth"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/middleware"
)

// orderScope loads the facts the authorization matrix needs about one order.
type orderScope struct {
	RestaurantID string
	Status       domain.OrderStatus
	Resource     auth.Resource
}

func (h *Handler) orderScope(ctx context.Context, authCtx *middleware.AuthContext, orderID string) (*orderScope, error) {
	var (
		restaurantID string
		status       string
		customerID   *string
	)
	err := h.DB.QueryRow(ctx, `
		select restaurant_id, status, customer_principal_id from "order" where id = $1
	`, orderID).Scan(&restaurantID, &status, &customerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.NotFound("Order not found")
		}
		return nil, err
	}

	res, err := h.restaurantResource(ctx, authCtx, restaurantID)
	if err != nil {
		return nil, err
	}
	res.SelfPlaced = customerID != nil && *customerID == authCtx.PrincipalID
	res.OrderStatus = domain.OrderStatus(status)

	return &orderScope{
		RestaurantID: restaurantID,
		Status:       domain.OrderStatus(status),
		Resource:     res,
	}, nil
}

// restaurantResource resolves ownership and employment for the caller. Only
// the check the caller's role needs hits the database.
func (h *Handler) restaurantResource(ctx context.Context, authCtx *middleware.AuthContext, restaurantID string) (auth.Resource, error) {
	var res auth.Resource
	switch authCtx.Role {
	case domain.RoleRestaurantOwner:
		err := h.DB.QueryRow(ctx, `
			select exists(select 1 from restaurant where id = $1 and owner_principal_id = $2)
		`, restaurantID, authCtx.PrincipalID).Scan(&res.OwnedByCaller)
		if err != nil {
			return res, err
		}
	case domain.RoleEmployee:
		err := h.DB.QueryRow(ctx, `
			select exists(select 1 from employee where restaurant_id = $1 and principal_id = $2 and active)
		`, restaurantID, authCtx.PrincipalID).Scan(&res.EmployedHere)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// employeeSelfTarget reports whether the target employee row belongs to the
// calling principal.
func (h *Handler) employeeSelfTarget(ctx context.Context, authCtx *middleware.AuthContext, restaurantID, employeeID string) (bool, error) {
	var self bool
	err := h.DB.QueryRow(ctx, `
		select exists(select 1 from employee where id = $1 and restaurant_id = $2 and principal_id = $3)
	`, employeeID, restaurantID, authCtx.PrincipalID).Scan(&self)
	return self, err
}

func (h *Handler) restaurantTimezone(ctx context.Context, restaurantID string) string {
	var tz *string
	err := h.DB.QueryRow(ctx, `select timezone from restaurant where id = $1`, restaurantID).Scan(&tz)
	if err != nil || tz == nil || *tz == "" {
		return h.Config.DefaultTimezone
	}
	return *tz
}
