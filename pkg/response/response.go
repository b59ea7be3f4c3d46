package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"foodcourt-backoffice/internal/domain"
)

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    data,
	})
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, map[string]any{
		"success": false,
		"code":    code,
		"message": message,
	})
}

// DomainError writes a taxonomy error. Anything that is not a *domain.Error
// collapses to Internal so callers never leak wrapped driver errors.
func DomainError(w http.ResponseWriter, err error) {
	var derr *domain.Error
	if errors.As(err, &derr) {
		payload := map[string]any{
			"success": false,
			"code":    string(derr.Code),
			"message": derr.Message,
		}
		if len(derr.Details) > 0 {
			payload["details"] = derr.Details
		}
		JSON(w, derr.StatusCode, payload)
		return
	}
	Error(w, http.StatusInternalServerError, string(domain.CodeInternal), "Unexpected error")
}
