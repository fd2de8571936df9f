// Package repokit is the repository toolkit: the SQL seam repos are written
// against, binding to a pool or a transaction, and read snapshots
package repokit

import (
	"context"

	"cardanoidx/internal/platform/store"
)

type (
	// Queryer is the read surface a repo runs its SQL on
	Queryer = store.RowQuerier
	// TxRunner opens transactions and also queries outside one
	TxRunner = store.TxRunner
	// Row is one result row
	Row = store.Row
)

// Binder builds a repo over a Queryer, so the same repo serves the pool and a snapshot tx
type Binder[T any] interface {
	Bind(Queryer) T
}

// Snapshot runs fn in a read-only repeatable-read transaction on tx
// every statement fn issues sees the same committed state
func Snapshot(ctx context.Context, tx TxRunner, fn func(ctx context.Context, q Queryer) error) error {
	return store.RunSnapshot(ctx, tx, fn)
}

// One maps exactly one row; see store.One for the not found and ambiguous contract
func One[T any](ctx context.Context, q Queryer, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	return store.One(ctx, q, scan, sql, args...)
}

// Many maps every row; an empty result is a non-nil empty slice
func Many[T any](ctx context.Context, q Queryer, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	return store.Many(ctx, q, scan, sql, args...)
}

// Each streams rows into fn
func Each(ctx context.Context, q Queryer, fn func(Row) error, sql string, args ...any) error {
	return store.Each(ctx, q, fn, sql, args...)
}
