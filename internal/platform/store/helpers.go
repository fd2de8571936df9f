package store

import (
	"context"

	perr "cardanoidx/internal/platform/errors"
)

// RunSnapshot runs fn in a read only repeatable read transaction
// so every read inside it sees the same committed chain state
func RunSnapshot(ctx context.Context, tx TxRunner, fn func(ctx context.Context, q RowQuerier) error) error {
	return tx.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.Exec(ctx, "set transaction isolation level repeatable read, read only"); err != nil {
			return err
		}
		return fn(ctx, q)
	})
}

// One maps exactly one row into T
// zero rows is perr.ErrNotFound, more than one is perr.ErrAmbiguous
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var zero T
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return zero, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, err
		}
		return zero, perr.ErrNotFound
	}
	item, err := scan(&rowFromRows{rows: rows})
	if err != nil {
		return zero, err
	}
	if rows.Next() {
		return zero, perr.ErrAmbiguous
	}
	return item, rows.Err()
}

// Many maps all rows into []T; an empty result is a non-nil empty slice
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	r := &rowFromRows{rows: rows}
	for rows.Next() {
		item, err := scan(r)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Each streams rows into fn without materializing them; fn errors stop iteration
func Each(ctx context.Context, q RowQuerier, fn func(Row) error, sql string, args ...any) error {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	r := &rowFromRows{rows: rows}
	for rows.Next() {
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// rowFromRows gives a Row facade over a current Rows position
type rowFromRows struct{ rows Rows }

func (r *rowFromRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
