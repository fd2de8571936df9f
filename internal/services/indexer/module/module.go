// Package module wires the indexer client into the API using modkit
package module

import (
	modkit "cardanoidx/internal/modkit"
	"cardanoidx/internal/modkit/httpkit"
	indexerhttp "cardanoidx/internal/services/indexer/http"
	indexerrepo "cardanoidx/internal/services/indexer/repo"
	indexersvc "cardanoidx/internal/services/indexer/service"
)

// Module serves the indexer client under its prefix
type Module struct {
	set modkit.Settings
	svc indexersvc.Service
}

// New constructs the indexer module; limits come from CARDANOIDX_INDEXER_* keys of deps.Cfg
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	s := modkit.Build(append([]modkit.Option{modkit.WithName("indexer"), modkit.WithPrefix("/indexer")}, opts...)...)
	cfg := deps.Cfg.Prefix("CARDANOIDX_INDEXER_")
	svcOpts := []indexersvc.Option{
		indexersvc.WithLimits(indexersvc.LimitsFromConfig(cfg)),
		indexersvc.WithStatementTimeout(cfg.MayDuration("STATEMENT_TIMEOUT", 0)),
	}
	if deps.Listen != nil {
		svcOpts = append(svcOpts, indexersvc.WithListener(deps.Listen))
	}
	if s.Swagger {
		indexerhttp.Document(s.Prefix)
	}
	return &Module{set: s, svc: indexersvc.New(deps.PG, indexerrepo.NewPG(), svcOpts...)}
}

// Name returns the module name
func (m *Module) Name() string { return m.set.Name }

// Service returns the indexer client the routes are served by
func (m *Module) Service() indexersvc.Service { return m.svc }

// MountRoutes mounts the indexer endpoints under the module prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	m.set.Mount(r, func(sub httpkit.Router) { indexerhttp.Register(sub, m.svc) })
}
