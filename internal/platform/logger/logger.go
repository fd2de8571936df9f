// Package logger owns the process zerolog root and the context fields
// (request, subscription, operation) every line in a request carries
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cardanoidx/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is zerolog's logger; the alias keeps call sites free of the import
type Logger = zerolog.Logger

// DefaultService is stamped on every line unless LOG_SERVICE overrides it
const DefaultService = "cardanoidx"

// Options configures the root logger
type Options struct {
	Level       string
	Format      string // console or json
	Service     string
	Component   string
	Writer      io.Writer
	WithCaller  bool
	SampleEvery int
}

// FromEnv reads CARDANOIDX_LOG_* falling back to the shared LOG_* keys
// it uses the raw view because config itself logs through this package
func FromEnv() Options {
	env := raw.New()
	own, shared := env.Prefix("CARDANOIDX_LOG_"), env.Prefix("LOG_")
	pick := func(key, def string) string { return raw.First(def, own.At(key), shared.At(key)) }
	return Options{
		Level:       strings.ToLower(pick("LEVEL", "info")),
		Format:      strings.ToLower(pick("FORMAT", "console")),
		Service:     pick("SERVICE", DefaultService),
		Component:   pick("COMPONENT", ""),
		WithCaller:  shared.GetBool("CALLER", false),
		SampleEvery: shared.GetInt("SAMPLE_EVERY", 0),
	}
}

var (
	once sync.Once
	root atomic.Pointer[Logger]
)

// Get returns the root logger, building it from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// Init builds the root logger; only the first call has any effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		w := opt.Writer
		if w == nil {
			w = os.Stdout
		}
		if opt.Format == "console" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		c := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
		if bi, ok := debug.ReadBuildInfo(); ok {
			c = c.Str("go_version", bi.GoVersion)
		}
		for k, v := range map[string]string{"service": opt.Service, "component": opt.Component} {
			if v != "" {
				c = c.Str(k, v)
			}
		}
		if opt.WithCaller {
			c = c.Caller()
		}
		l := c.Logger()
		if opt.SampleEvery > 1 {
			l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
		}
		root.Store(&l)
	})
}

// parseLevel falls back to info for empty or unknown names
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

type ctxKey string

// ctxFields are copied from ctx onto every line C builds, in this order
var ctxFields = []ctxKey{"request_id", "subscription_id", "op"}

func with(ctx context.Context, k ctxKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, k, v)
}

// WithRequest annotates ctx with the gateway request id
func WithRequest(ctx context.Context, id string) context.Context { return with(ctx, "request_id", id) }

// WithSubscription annotates ctx with a realtime subscription id
func WithSubscription(ctx context.Context, id string) context.Context {
	return with(ctx, "subscription_id", id)
}

// WithOp annotates ctx with the facade operation (list_blocks, pool_info, ...)
func WithOp(ctx context.Context, op string) context.Context { return with(ctx, "op", op) }

// Op returns the operation stored by WithOp, or ""
func Op(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey("op")).(string)
	return s
}

// C returns a child of the root carrying the ctx annotations
func C(ctx context.Context) *Logger {
	c := Get().With()
	for _, k := range ctxFields {
		if s, _ := ctx.Value(k).(string); s != "" {
			c = c.Str(string(k), s)
		}
	}
	l := c.Logger()
	return &l
}

// Named returns a child of the root tagged with component
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
