package handlers

import (
	"net/http"
	"strings"

	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/pkg/response"
)

type sessionRequest struct {
	InitData string `json:"initData"`
}

// CreateSession exchanges a signed provider envelope for a bearer token.
// First contact provisions a Customer principal.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.DomainError(w, err)
		return
	}
	if strings.TrimSpace(req.InitData) == "" {
		response.DomainError(w, domain.Validation("initData is required"))
		return
	}

	grant, err := h.Identity.Authenticate(r.Context(), req.InitData)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.Created(w, grant)
}

// DeleteSession revokes the caller's own session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.Identity.Revoke(r.Context(), authCtx.SessionID); err != nil {
		response.DomainError(w, err)
		return
	}
	response.Success(w, map[string]any{"revoked": true})
}
