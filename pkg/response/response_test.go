package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"foodcourt-backoffice/internal/domain"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	return body
}

func TestDomainErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	DomainError(rec, domain.IllegalTransition("COMPLETED", "PENDING"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false {
		t.Fatal("success must be false")
	}
	if body["code"] != "IllegalTransition" {
		t.Fatalf("code = %v, expected IllegalTransition", body["code"])
	}
	details, ok := body["details"].(map[string]any)
	if !ok || details["from"] != "COMPLETED" || details["to"] != "PENDING" {
		t.Fatalf("unexpected details: %v", body["details"])
	}
}

func TestDomainErrorCollapsesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	DomainError(rec, errors.New("pq: connection reset"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, expected 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["code"] != "Internal" {
		t.Fatalf("code = %v, expected Internal", body["code"])
	}
	if body["message"] == "pq: connection reset" {
		t.Fatal("driver error text must not leak to the wire")
	}
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]any{"id": "abc"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatal("success must be true")
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["id"] != "abc" {
		t.Fatalf("unexpected data: %v", body["data"])
	}
}
