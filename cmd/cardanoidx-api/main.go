// Command cardanoidx-api serves the indexer client over HTTP
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardanoidx/internal/modkit/repokit"
	"cardanoidx/internal/platform/config"
	"cardanoidx/internal/platform/logger"
	phttp "cardanoidx/internal/platform/net/http"
	"cardanoidx/internal/platform/store"

	"cardanoidx/internal/services/api"
)

func main() {
	// CARDANOIDX_PG_* for the indexer, CARDANOIDX_API_* for HTTP
	root := config.New()
	apiCfg := root.Prefix("CARDANOIDX_API_")

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(
		ctx,
		store.Config{
			AppName: "cardanoidx-api",
			PG:      store.FromEnv(root.Prefix("CARDANOIDX_")),
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// refuse to serve when the index is unreachable
	repokit.MustGuard(ctx, st)

	// http server (reads CARDANOIDX_API_PORT)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	select {
	case err := <-errc:
		if err != nil {
			l.Panic().Err(err).Msg("http server stopped")
		}
	case <-ctx.Done():
		l.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			l.Error().Err(err).Msg("http shutdown")
		}
	}
}
