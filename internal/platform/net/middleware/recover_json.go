package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	perr "cardanoidx/internal/platform/errors"
	"cardanoidx/internal/platform/logger"
	pnet "cardanoidx/internal/platform/net"
)

// RecoverJSON answers a handler panic with the 500 panic envelope and logs the stack
// http.ErrAbortHandler is passed on so net/http can drop the connection
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().Interface("panic", v).Bytes("stack", debug.Stack()).Msg("panic recovered")

			id := pnet.RequestID(r.Context())
			status, body := pnet.Failure(perr.PanicErrf("panic recovered"), id)
			h := w.Header()
			h.Set("Content-Type", "application/json; charset=utf-8")
			if id != "" {
				h.Set("X-Request-ID", id)
			}
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(body)
		}()
		next.ServeHTTP(w, r)
	})
}
