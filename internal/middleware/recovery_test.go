package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecoverer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("connection string postgres://secret")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["name"] != "InternalServerError" {
		t.Errorf("name = %v, want InternalServerError", body["name"])
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("panic value leaked into response: %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "panic_recovered") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}
