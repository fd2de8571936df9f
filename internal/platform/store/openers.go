package store

import (
	"context"
	"time"

	perr "cardanoidx/internal/platform/errors"
	"cardanoidx/internal/platform/logger"
	"cardanoidx/internal/platform/store/pg"
)

// boot guardrails used when PGConfig leaves them zero
const (
	defaultConnectRetries = 6
	defaultPingTimeout    = 3 * time.Second
	backoffStart          = 150 * time.Millisecond
	backoffCeiling        = 2 * time.Second
)

// sleep is a seam so tests do not wait out the backoff
var sleep = func(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// openPG opens pg and wraps it with our sql adapter
// errors never carry the DSN; the redacted form is logged instead
func openPG(ctx context.Context, cfg Config, root logger.Logger) (*pgAdapter, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(root)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		Password: cfg.PG.AccessKey.Reveal(),
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "postgres config for %s", pg.Redact(cfg.PG.URL))
	}

	attempts := cfg.PG.ConnectRetries
	if attempts <= 0 {
		attempts = defaultConnectRetries
	}
	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}

	log := root.With().Str("component", "store").Str("dsn", pg.Redact(cfg.PG.URL)).Logger()

	var lastErr error
	backoff := backoffStart
	for i := 0; i < attempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			log.Info().Int("attempt", i+1).Msg("postgres ready")
			return newPGAdapter(p), nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, perr.Wrap(ctx.Err(), perr.ErrorCodeUnavailable, "postgres connect cancelled")
		}
		log.Warn().Int("attempt", i+1).Dur("backoff", backoff).Str("cause", perr.Classify(lastErr).String()).Msg("postgres ping failed")
		sleep(ctx, backoff)
		if backoff < backoffCeiling {
			backoff = min(backoff*2, backoffCeiling)
		}
	}

	p.Close()
	return nil, perr.Wrapf(lastErr, perr.ErrorCodeUnavailable, "postgres ping failed after %d attempts", attempts)
}
