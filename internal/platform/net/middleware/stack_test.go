package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cardanoidx/internal/platform/net/middleware"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func chain(mws []func(http.Handler) http.Handler, h http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func TestStack_RequestIDRealIPAndNoCache(t *testing.T) {
	var seenID, seenIP string
	h := chain(middleware.Stack(middleware.StackOptions{}), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = chimw.GetReqID(r.Context())
		seenIP = r.RemoteAddr
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(strings.Repeat("a", 4<<10)))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/indexer/blocks", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seenID == "" || rec.Header().Get("X-Request-Id") != seenID {
		t.Fatalf("request id %q header %q", seenID, rec.Header().Get("X-Request-Id"))
	}
	if seenIP != "203.0.113.7" {
		t.Fatalf("remote addr = %q", seenIP)
	}
	if rec.Header().Get("Cache-Control") == "" {
		t.Fatal("expected no-cache headers")
	}
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("content encoding = %q", rec.Header().Get("Content-Encoding"))
	}
}

func TestStack_HeartbeatAnswersBeforeRouting(t *testing.T) {
	h := chain(middleware.Stack(middleware.StackOptions{Heartbeat: "/ping"}), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("heartbeat should not reach the router")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestStack_TimeoutCancelsContext(t *testing.T) {
	h := chain(middleware.Stack(middleware.StackOptions{Timeout: 5 * time.Millisecond}), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestCORS_AllowsReadsOnly(t *testing.T) {
	cors := middleware.CORS([]string{"https://explorer.example"})
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	cases := []struct {
		method    string
		wantAllow bool
	}{
		{http.MethodGet, true},
		{http.MethodDelete, false},
		{http.MethodPost, false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://explorer.example")
		req.Header.Set("Access-Control-Request-Method", tc.method)
		rec := httptest.NewRecorder()
		cors(ok).ServeHTTP(rec, req)
		got := rec.Header().Get("Access-Control-Allow-Origin") != ""
		if got != tc.wantAllow {
			t.Fatalf("%s preflight allowed=%v want %v", tc.method, got, tc.wantAllow)
		}
	}
}
