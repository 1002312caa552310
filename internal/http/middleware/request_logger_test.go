package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestLoggerPreservesResponse(t *testing.T) {
	mw := RequestLogger(nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("infusion"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status lost through logging middleware: %d", rec.Code)
	}
	if rec.Body.String() != "infusion" {
		t.Fatalf("body lost through logging middleware: %q", rec.Body.String())
	}
}
