// Package sqlfake is a scripted store.TxRunner for repo and service tests
// responders match on a SQL substring; the first live match answers
package sqlfake

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"cardanoidx/internal/platform/store"
)

// Call is one recorded statement
type Call struct {
	SQL  string
	Args []any
}

type responder struct {
	match string
	rows  [][]any
	err   error
	once  bool
	used  bool
}

// DB records every call and answers from its responders; unmatched queries return no rows
type DB struct {
	mu    sync.Mutex
	calls []Call
	resp  []*responder
	txs   int
}

// New returns an empty fake
func New() *DB { return &DB{} }

// On answers every query containing match with rows
func (d *DB) On(match string, rows ...[]any) *DB {
	return d.add(&responder{match: match, rows: rows})
}

// Once answers the next query containing match with rows, then retires
// queued Once responders for the same match answer in order
func (d *DB) Once(match string, rows ...[]any) *DB {
	return d.add(&responder{match: match, rows: rows, once: true})
}

// Fail makes every query containing match return err
func (d *DB) Fail(match string, err error) *DB {
	return d.add(&responder{match: match, err: err})
}

func (d *DB) add(r *responder) *DB {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resp = append(d.resp, r)
	return d
}

// Calls returns a copy of the recorded statements
func (d *DB) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Matching returns the recorded statements containing substr
func (d *DB) Matching(substr string) []Call {
	var out []Call
	for _, c := range d.Calls() {
		if strings.Contains(c.SQL, substr) {
			out = append(out, c)
		}
	}
	return out
}

// Txs returns how many transactions were opened
func (d *DB) Txs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txs
}

func (d *DB) answer(sql string, args []any) ([][]any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{SQL: sql, Args: args})
	for _, r := range d.resp {
		if r.used || !strings.Contains(sql, r.match) {
			continue
		}
		if r.once {
			r.used = true
		}
		return r.rows, r.err
	}
	return nil, nil
}

// Exec implements store.RowQuerier
func (d *DB) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	_, err := d.answer(sql, args)
	return tag(sql), err
}

// Query implements store.RowQuerier
func (d *DB) Query(_ context.Context, sql string, args ...any) (store.Rows, error) {
	rows, err := d.answer(sql, args)
	if err != nil {
		return nil, err
	}
	return &Rows{data: rows, idx: -1}, nil
}

// QueryRow implements store.RowQuerier
func (d *DB) QueryRow(ctx context.Context, sql string, args ...any) store.Row {
	rows, err := d.answer(sql, args)
	return &row{rows: &Rows{data: rows, idx: -1}, err: err}
}

// Tx implements store.TxRunner by running fn against the same fake
func (d *DB) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	d.mu.Lock()
	d.txs++
	d.mu.Unlock()
	return fn(d)
}

var _ store.TxRunner = (*DB)(nil)

type tag string

func (t tag) String() string      { return string(t) }
func (t tag) RowsAffected() int64 { return 0 }

type row struct {
	rows *Rows
	err  error
}

func (r *row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if !r.rows.Next() {
		return errors.New("sqlfake: no rows in result set")
	}
	return r.rows.Scan(dest...)
}

// Rows iterates scripted values; Scan assigns by position with reflection
type Rows struct {
	data   [][]any
	idx    int
	closed bool
}

// Next implements store.Rows
func (r *Rows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

// Scan implements store.Rows; nil values zero the destination
func (r *Rows) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.data) {
		return errors.New("sqlfake: scan out of bounds")
	}
	src := r.data[r.idx]
	if len(dest) != len(src) {
		return fmt.Errorf("sqlfake: %d destinations for %d values", len(dest), len(src))
	}
	for i := range dest {
		dv := reflect.ValueOf(dest[i])
		if dv.Kind() != reflect.Pointer || !dv.Elem().CanSet() {
			return fmt.Errorf("sqlfake: destination %d not settable", i)
		}
		el := dv.Elem()
		if src[i] == nil {
			el.Set(reflect.Zero(el.Type()))
			continue
		}
		val := reflect.ValueOf(src[i])
		switch {
		case val.Type().AssignableTo(el.Type()):
			el.Set(val)
		case el.Kind() == reflect.Pointer && val.Type().AssignableTo(el.Type().Elem()):
			p := reflect.New(el.Type().Elem())
			p.Elem().Set(val)
			el.Set(p)
		case val.Type().ConvertibleTo(el.Type()):
			el.Set(val.Convert(el.Type()))
		default:
			return fmt.Errorf("sqlfake: cannot scan %T into %s", src[i], el.Type())
		}
	}
	return nil
}

// Err implements store.Rows
func (r *Rows) Err() error { return nil }

// Close implements store.Rows
func (r *Rows) Close() { r.closed = true }

// Columns implements store.Rows
func (r *Rows) Columns() []string { return nil }
