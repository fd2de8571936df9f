package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidwall/gjson"
)

func TestRecoverJSON(t *testing.T) {
	cases := []struct {
		name   string
		id     string
		panic  any
		status int
	}{
		{name: "string panic", id: "rid-panic", panic: "scan exploded", status: http.StatusInternalServerError},
		{name: "error panic without id", panic: http.ErrNoCookie, status: http.StatusInternalServerError},
		{name: "no panic", status: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := RecoverJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tc.panic != nil {
					panic(tc.panic)
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			if tc.id != "" {
				h = RequestID()(h)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/indexer/blocks", nil)
			req.Header.Set("X-Request-ID", tc.id)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("code = %d", rec.Code)
			}
			if tc.panic == nil {
				return
			}
			body := rec.Body.String()
			if gjson.Get(body, "kind").String() != "panic" || gjson.Get(body, "error").String() != "panic recovered" {
				t.Fatalf("body = %s", body)
			}
			if gjson.Get(body, "request_id").String() != tc.id || rec.Header().Get("X-Request-ID") != tc.id {
				t.Fatalf("request id body %s header %q", body, rec.Header().Get("X-Request-ID"))
			}
		})
	}
}

func TestRecoverJSON_AbortHandlerPassesThrough(t *testing.T) {
	h := RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) }))
	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Fatalf("recovered %v", v)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	t.Fatalf("abort was swallowed")
}
