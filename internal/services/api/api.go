// Package api mounts the gateway: docs, profiler and the versioned module routes
package api

import (
	"cardanoidx/internal/platform/config"
	"cardanoidx/internal/platform/logger"
	phttp "cardanoidx/internal/platform/net/http"
	"cardanoidx/internal/platform/net/middleware"
	"cardanoidx/internal/platform/store"

	"cardanoidx/internal/modkit"
	"cardanoidx/internal/modkit/httpkit"
	"cardanoidx/internal/modkit/swaggerkit"

	metamod "cardanoidx/internal/services/api/meta/module"
	indexermod "cardanoidx/internal/services/indexer/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts docs, the profiler and /api/v1 onto r
// CARDANOIDX_API_CORS_ORIGINS, REQUEST_TIMEOUT and SLOW_REQUEST tune the middleware stack
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Cfg:    opt.Config,
		PG:     opt.Store.PG,
		Listen: opt.Store.Listener,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	mods := []modkit.Module{
		metamod.New(deps, modkit.WithSwagger(opt.EnableSwagger)),
		indexermod.New(deps, modkit.WithSwagger(opt.EnableSwagger)),
	}

	// docs and profiler live outside the versioned stack
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	apiCfg := opt.Config.Prefix("CARDANOIDX_API_")
	stack := middleware.Stack(middleware.StackOptions{
		Origins: apiCfg.MayCSV("CORS_ORIGINS", nil),
		Timeout: apiCfg.MayDuration("REQUEST_TIMEOUT", 0),
		Slow:    apiCfg.MayDuration("SLOW_REQUEST", 0),
	})
	httpkit.MountAPI(r, "v1", stack, func(v1 httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(v1)
			deps.Log.Debug().Str("module", m.Name()).Msg("module mounted")
		}
	})
}
