package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/logger"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestListEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	List(rec, map[string]interface{}{"incidents": []string{"a", "b"}}, 2)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != true {
		t.Fatalf("success = %v", body["success"])
	}
	meta, ok := body["meta"].(map[string]interface{})
	if !ok || meta["count"] != float64(2) {
		t.Fatalf("meta = %v", body["meta"])
	}
	if body["timestamp"] == "" {
		t.Fatalf("missing timestamp")
	}
}

func TestErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, logger.Nop(), errors.New("pq: password authentication failed"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != false || body["message"] != "Internal server error" {
		t.Fatalf("body = %v", body)
	}
}

func TestErrorUsesKindStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, nil, apperr.Conflict("Incident is already closed"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d", rec.Code)
	}
	if msg := decode(t, rec)["message"]; msg != "Incident is already closed" {
		t.Fatalf("message = %v", msg)
	}
}
