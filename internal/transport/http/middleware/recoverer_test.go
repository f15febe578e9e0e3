package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"timesheet/internal/transport/http/api"
)

func TestRecovererReturnsEnvelope(t *testing.T) {
	handler := RequestID(Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var env api.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error == nil || env.Error.Code != "internal_error" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.RequestID == "" {
		t.Fatal("expected request id in envelope")
	}
}
