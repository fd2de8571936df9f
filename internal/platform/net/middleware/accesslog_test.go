package middleware_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"cardanoidx/internal/platform/logger"
	"cardanoidx/internal/platform/net/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"
)

var (
	logMu  sync.Mutex
	logBuf bytes.Buffer
)

type lockedWriter struct{}

func (lockedWriter) Write(p []byte) (int, error) {
	logMu.Lock()
	defer logMu.Unlock()
	return logBuf.Write(p)
}

// lastLine returns the newest log line containing msg
func lastLine(msg string) string {
	logMu.Lock()
	defer logMu.Unlock()
	lines := strings.Split(strings.TrimSpace(logBuf.String()), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if gjson.Get(lines[i], "message").String() == msg {
			return lines[i]
		}
	}
	return ""
}

func TestMain(m *testing.M) {
	logger.Init(logger.Options{Level: "debug", Format: "json", Writer: lockedWriter{}})
	os.Exit(m.Run())
}

func TestAccessLogZerolog(t *testing.T) {
	cases := []struct {
		name   string
		slow   time.Duration
		status int
		body   []string
		level  string
	}{
		{name: "ok", status: http.StatusOK, body: []string{"{", `"data":[]}`}, level: "info"},
		{name: "not found", status: http.StatusNotFound, body: []string{`{"kind":"not_found"}`}, level: "info"},
		{name: "slow", slow: time.Nanosecond, status: http.StatusOK, body: []string{"{}"}, level: "warn"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Use(middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: tc.slow}))
			r.Get("/api/v1/indexer/pools/{pool_id}", func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(time.Millisecond)
				if tc.status != http.StatusOK {
					w.WriteHeader(tc.status)
				}
				for _, b := range tc.body {
					_, _ = io.WriteString(w, b)
				}
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/indexer/pools/pool1abc", nil))
			want := strings.Join(tc.body, "")
			if rec.Code != tc.status || rec.Body.String() != want {
				t.Fatalf("response = %d %q", rec.Code, rec.Body.String())
			}

			line := lastLine("request done")
			checks := map[string]any{
				"level":  tc.level,
				"route":  "/api/v1/indexer/pools/{pool_id}",
				"path":   "/api/v1/indexer/pools/pool1abc",
				"status": int64(tc.status),
				"bytes":  int64(len(want)),
			}
			for k, v := range checks {
				got := gjson.Get(line, k).Value()
				if f, ok := got.(float64); ok {
					got = int64(f)
				}
				if got != v {
					t.Fatalf("%s = %v, want %v in %s", k, got, v, line)
				}
			}
		})
	}
}
