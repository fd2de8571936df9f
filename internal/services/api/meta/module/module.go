// Package module wires meta endpoints into the API
package module

import (
	"time"

	modkit "cardanoidx/internal/modkit"
	"cardanoidx/internal/modkit/httpkit"
	"cardanoidx/internal/modkit/swaggerkit"

	metahttp "cardanoidx/internal/services/api/meta/http"
)

// Module serves health, readiness and build info
type Module struct {
	set  modkit.Settings
	deps metahttp.Deps
}

// New constructs the meta module; the start time is taken now
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	s := modkit.Build(append([]modkit.Option{modkit.WithName("meta"), modkit.WithPrefix("/meta")}, opts...)...)
	if s.Swagger {
		for _, p := range []string{"/health", "/ready", "/version", "/service"} {
			swaggerkit.Register(swaggerkit.Operation("GET", s.Prefix+p, "Meta", "Service "+p[1:]))
		}
	}
	return &Module{set: s, deps: metahttp.Deps{
		ServiceName: deps.Cfg.MayString("CARDANOIDX_API_SERVICE_NAME", "cardanoidx-api"),
		StartedAt:   time.Now(),
		PG:          deps.PG,
		Listen:      deps.Listen,
	}}
}

// Name returns the module name
func (m *Module) Name() string { return m.set.Name }

// MountRoutes mounts the meta endpoints under the module prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	m.set.Mount(r, func(sub httpkit.Router) { metahttp.Register(sub, m.deps) })
}
