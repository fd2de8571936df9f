package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cardanoidx/internal/platform/logger"
	"cardanoidx/internal/platform/net/middleware"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestRequestLogger_BridgesRequestID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = chimw.GetReqID(r.Context())
		logger.C(r.Context()).Debug().Msg("inside")
		w.WriteHeader(http.StatusNoContent)
	})
	h := chimw.RequestID(middleware.RequestLogger(next))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen != "req-abc" {
		t.Fatalf("request id = %q", seen)
	}
	if got := rr.Header().Get(chimw.RequestIDHeader); got != "req-abc" {
		t.Fatalf("response header = %q", got)
	}
}

func TestRequestLogger_NoIDPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	rr := httptest.NewRecorder()
	middleware.RequestLogger(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if !called || rr.Header().Get(chimw.RequestIDHeader) != "" {
		t.Fatalf("called=%v header=%q", called, rr.Header().Get(chimw.RequestIDHeader))
	}
}
