package pg

import (
	"context"
	"strings"

	"cardanoidx/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one statement sent to db-sync
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives one event per statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs every statement at info and slow ones at warn
// it pins debug level so LOG_SQL works whatever the root level is
func Tracer(root logger.Logger) QueryTracer {
	return sqlLog{root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type sqlLog struct{ log logger.Logger }

func (s sqlLog) OnQuery(ctx context.Context, ev QueryEvent) {
	lvl := zerolog.InfoLevel
	if ev.Slow {
		lvl = zerolog.WarnLevel
	}
	e := s.log.WithLevel(lvl)
	if op := logger.Op(ctx); op != "" {
		e = e.Str("op", op)
	}
	e.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000).
		Bool("slow", ev.Slow).
		Str("sql", strings.Join(strings.Fields(ev.SQL), " ")).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("pg query")
}
