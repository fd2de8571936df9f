// Package pg opens the pgx pool the store reads db-sync through
package pg

import (
	"context"
	"net/url"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config describes one db-sync connection
// Password wins over any password in URL so the access key can live outside the DSN
type Config struct {
	URL      string
	Password string
	AppName  string
	MaxConns int32
	SlowMs   int
}

// PG is an open pool plus the tracer its statements report to
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	SlowMs int
}

var newPool = pgxpool.NewWithConfig

// poolConfig parses URL and layers the explicit settings over it
func (c Config) poolConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, err
	}
	cc := pc.ConnConfig
	if c.Password != "" {
		cc.Password = c.Password
	}
	if c.AppName != "" {
		if cc.RuntimeParams == nil {
			cc.RuntimeParams = map[string]string{}
		}
		cc.RuntimeParams["application_name"] = c.AppName
	}
	if c.MaxConns > 0 {
		pc.MaxConns = c.MaxConns
	}
	return pc, nil
}

// Open builds the pool without dialing; the first ping or query connects
func Open(ctx context.Context, c Config, tracer QueryTracer) (*PG, error) {
	pc, err := c.poolConfig()
	if err != nil {
		return nil, err
	}
	pool, err := newPool(ctx, pc)
	if err != nil {
		return nil, err
	}
	return &PG{Pool: pool, Tracer: tracer, SlowMs: c.SlowMs}, nil
}

// Close is safe on a nil PG
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

var kvPassword = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)

// Redact masks the password of a URL or key=value DSN
func Redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return kvPassword.ReplaceAllString(dsn, "${1}xxxxx")
	}
	if q := u.Query(); q.Has("password") {
		q.Set("password", "xxxxx")
		u.RawQuery = q.Encode()
	}
	return u.Redacted()
}
