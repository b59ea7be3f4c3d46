package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/config"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/identity"
	"foodcourt-backoffice/internal/middleware"
	"foodcourt-backoffice/internal/orders"
	"foodcourt-backoffice/internal/payments"
	"foodcourt-backoffice/internal/workforce"
	"foodcourt-backoffice/pkg/response"
)

type Handler struct {
	DB        *pgxpool.Pool
	Logger    *zap.Logger
	Config    config.Config
	Identity  *identity.Oracle
	Orders    *orders.Engine
	Payments  *payments.Broker
	Workforce *workforce.Ledger
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Validation("Malformed JSON body")
	}
	return nil
}

// caller returns the bound auth context or writes 401.
func caller(w http.ResponseWriter, r *http.Request) (*middleware.AuthContext, bool) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.DomainError(w, domain.Unauthenticated("Authorization token required"))
		return nil, false
	}
	return authCtx, true
}
