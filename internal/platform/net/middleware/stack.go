// Package middleware holds the gateway middleware chain, chi middleware plus the in house
// logging and panic recovery
package middleware

import (
	"compress/flate"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// StackOptions tunes the gateway chain; zero values take the defaults
type StackOptions struct {
	// Slow requests log at warn level (default 2s)
	Slow time.Duration
	// Timeout cancels the request context (default 30s)
	Timeout time.Duration
	// Origins allowed by CORS; empty allows any origin
	Origins []string
	// Heartbeat path answered before routing (default /health)
	Heartbeat string
}

// Stack returns the ordered chain mounted in front of the versioned API
// request id first so every later layer logs it
func Stack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Slow <= 0 {
		o.Slow = 2 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Heartbeat == "" {
		o.Heartbeat = "/health"
	}
	return []func(http.Handler) http.Handler{
		chimw.RequestID,
		RequestLogger,
		chimw.RealIP,
		RecoverJSON,
		chimw.NoCache,
		AccessLogZerolog(AccessLogOptions{Slow: o.Slow}),
		CORS(o.Origins),
		chimw.NewCompressor(flate.BestSpeed).Handler,
		chimw.Heartbeat(o.Heartbeat),
		chimw.RedirectSlashes,
		chimw.StripSlashes,
		chimw.Timeout(o.Timeout),
	}
}

// RequestID attaches or propagates X-Request-ID and stores it on context
func RequestID() func(http.Handler) http.Handler { return chimw.RequestID }

// CORS allows the read-only methods the gateway serves from origins
func CORS(origins []string, headers ...string) func(http.Handler) http.Handler {
	if len(headers) == 0 {
		headers = []string{"Accept", "Content-Type", "X-Request-ID"}
	}
	return chicors.Handler(chicors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: headers,
		ExposedHeaders: []string{"X-Request-ID"},
	})
}
