// Package http serves the gateway's own health, readiness and build endpoints
package http

import (
	"context"
	"net/http"
	"time"

	"cardanoidx/internal/core/version"
	"cardanoidx/internal/modkit/httpkit"
	perr "cardanoidx/internal/platform/errors"
)

// readyTimeout bounds all dependency pings of one /ready call
const readyTimeout = 2 * time.Second

// Pinger is any dependency /ready can ping
type Pinger interface {
	Ping(context.Context) error
}

// Deps are what the meta routes report on
// PG and Listen are checked only when they implement Pinger
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	Listen      any
}

// HealthResponse is the liveness payload; it never touches db-sync
type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"cardanoidx-api"`
	Started string `json:"started" example:"2026-10-18T09:00:00Z"`
	Now     string `json:"now"     example:"2026-10-18T09:05:00Z"`
}

// ReadyCheck is one dependency's status: ok, fail, skipped or unknown
type ReadyCheck struct {
	Name   string `json:"name"            example:"pg"`
	Status string `json:"status"          example:"ok"`
	Error  string `json:"error,omitempty" example:"unavailable"`
}

// ReadyResponse is ok when every check is, fail when any failed and degraded otherwise
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-10-18T09:05:00Z"`
}

// ServiceResponse reports process uptime in seconds
type ServiceResponse struct {
	Name    string `json:"name"    example:"cardanoidx-api"`
	Started string `json:"started" example:"2026-10-18T09:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// Register mounts /health, /ready, /version and /service on r
func Register(r httpkit.Router, d Deps) {
	started := d.StartedAt.UTC().Format(time.RFC3339)

	httpkit.Get(r, "/health", func(*http.Request) (any, error) {
		return HealthResponse{OK: true, Service: d.ServiceName, Started: started, Now: now()}, nil
	})
	httpkit.Get(r, "/ready", func(req *http.Request) (any, error) {
		ctx, cancel := context.WithTimeout(req.Context(), readyTimeout)
		defer cancel()
		return readiness(ctx, map[string]any{"pg": d.PG, "realtime": d.Listen}), nil
	})
	httpkit.Get(r, "/version", func(*http.Request) (any, error) {
		return version.Info(d.ServiceName), nil
	})
	httpkit.Get(r, "/service", func(*http.Request) (any, error) {
		return ServiceResponse{Name: d.ServiceName, Started: started, Uptime: int64(time.Since(d.StartedAt) / time.Second)}, nil
	})
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// readiness checks deps in pg, realtime order; a failed ping reports only its error kind
// so driver text with connection details never reaches the response
func readiness(ctx context.Context, deps map[string]any) ReadyResponse {
	out := ReadyResponse{Status: "ok", Now: now()}
	for _, name := range []string{"pg", "realtime"} {
		c := ReadyCheck{Name: name, Status: "unknown"}
		switch p := deps[name].(type) {
		case nil:
			c.Status = "skipped"
		case Pinger:
			c.Status = "ok"
			if err := p.Ping(ctx); err != nil {
				c.Status, c.Error = "fail", perr.Classify(err).String()
			}
		}
		switch {
		case c.Status == "fail":
			out.Status = "fail"
		case c.Status != "ok" && out.Status == "ok":
			out.Status = "degraded"
		}
		out.Checks = append(out.Checks, c)
	}
	return out
}
