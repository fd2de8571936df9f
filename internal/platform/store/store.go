// Package store provides the Postgres seams the indexer facade reads through
package store

import (
	"context"
	"errors"
	"fmt"

	"cardanoidx/internal/platform/logger"
)

// Store holds the seams repos and the realtime hub read through
// a zero Store is usable and has every seam nil
type Store struct {
	Log      logger.Logger
	PG       TxRunner
	Listener Listener
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Notification is one NOTIFY delivered on a LISTEN channel
type Notification struct {
	Channel string
	Payload string
	PID     uint32
}

// NotificationStream yields notifications from one dedicated session
// Next and Close must be called from the same goroutine
type NotificationStream interface {
	Next(ctx context.Context) (Notification, error)
	Close(ctx context.Context) error
}

// Listener opens a LISTEN session on channel
type Listener interface {
	Listen(ctx context.Context, channel string) (NotificationStream, error)
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Option mutates Store before any backend opens
type Option func(*Store)

// WithLogger sets the logger backends log through
func WithLogger(log logger.Logger) Option {
	return func(s *Store) { s.Log = log }
}

// Open connects the backends cfg enables; the rest stay nil
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		o(s)
	}
	if !cfg.PG.Enabled {
		return s, nil
	}
	a, err := openPG(ctx, cfg, s.Log)
	if err != nil {
		return nil, err
	}
	s.PG, s.Listener = a, a
	return s, nil
}

// Guard pings the postgres seam when it can be pinged
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	if p, ok := s.PG.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
	}
	return nil
}

// Close releases the pool; safe on a nil or empty Store
func (s *Store) Close(_ context.Context) error {
	if s == nil {
		return nil
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
