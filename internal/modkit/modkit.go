// Package modkit wires API modules: shared deps in, a prefixed route mount out
package modkit

import (
	"net/http"
	"strings"

	"cardanoidx/internal/modkit/httpkit"
	"cardanoidx/internal/modkit/repokit"
	"cardanoidx/internal/platform/config"
	"cardanoidx/internal/platform/logger"
	"cardanoidx/internal/platform/store"
)

// Deps holds the shared dependencies handed to every module
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	// Listen is optional; without it realtime subscriptions report unavailable
	Listen store.Listener
}

// Module is what the API mounts
type Module interface {
	Name() string
	MountRoutes(r httpkit.Router)
}

// Option mutates the settings of a module under construction
type Option func(*Settings)

// Settings are the resolved options of one module
type Settings struct {
	Name    string
	Prefix  string
	Mw      []func(http.Handler) http.Handler
	Swagger bool
}

// WithName sets the module name used in logs
func WithName(name string) Option { return func(s *Settings) { s.Name = name } }

// WithPrefix mounts the module under prefix
func WithPrefix(prefix string) Option { return func(s *Settings) { s.Prefix = prefix } }

// WithMiddlewares appends per module middleware, applied in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Settings) { s.Mw = append(s.Mw, mw...) }
}

// WithSwagger documents the module routes in the docs UI
func WithSwagger(enabled bool) Option { return func(s *Settings) { s.Swagger = enabled } }

// Build applies opts in order; later options win
// panics when the name or prefix ends up empty
func Build(opts ...Option) Settings {
	var s Settings
	for _, o := range opts {
		o(&s)
	}
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		panic("modkit: module name is required")
	}
	// one leading slash, no trailing one
	s.Prefix = "/" + strings.Trim(s.Prefix, " /")
	if s.Prefix == "/" {
		panic("modkit: module " + s.Name + " needs a non root prefix")
	}
	return s
}

// Mount registers routes under the module prefix with the module middleware in front
func (s Settings) Mount(r httpkit.Router, register func(httpkit.Router)) {
	r.Route(s.Prefix, func(sub httpkit.Router) {
		sub.Use(s.Mw...)
		register(sub)
	})
}
