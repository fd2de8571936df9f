package store

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"cardanoidx/internal/platform/logger"
	"cardanoidx/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func quietLogger() logger.Logger { return zerolog.New(io.Discard) }

type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

// colRows is a pgx.Rows with column names and no data
type colRows struct {
	pgx.Rows
	cols []string
}

func (r colRows) FieldDescriptions() []pgconn.FieldDescription {
	out := make([]pgconn.FieldDescription, len(r.cols))
	for i, c := range r.cols {
		out[i].Name = c
	}
	return out
}

type fakePgx struct {
	err  error
	cols []string
}

func (f fakePgx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("SELECT 3"), f.err
}

func (f fakePgx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	if f.err != nil {
		return nil, f.err
	}
	return colRows{cols: f.cols}, nil
}

func (f fakePgx) QueryRow(context.Context, string, ...any) pgx.Row {
	return scanFunc(func(dest ...any) error {
		if f.err != nil {
			return f.err
		}
		*dest[0].(*int64) = 9_100_000
		return nil
	})
}

type recTracer struct{ events []pg.QueryEvent }

func (r *recTracer) OnQuery(_ context.Context, ev pg.QueryEvent) { r.events = append(r.events, ev) }

func TestTraced_ReportsEveryStatement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	down := errors.New("conn reset")

	cases := []struct {
		name string
		err  error
		slow time.Duration
		run  func(q RowQuerier) error
	}{
		{name: "exec", run: func(q RowQuerier) error {
			ct, err := q.Exec(ctx, "select set_config($1, $2, true)", "statement_timeout", "5s")
			if err == nil && ct.RowsAffected() != 3 {
				t.Fatalf("RowsAffected = %d", ct.RowsAffected())
			}
			return err
		}},
		{name: "query error", err: down, run: func(q RowQuerier) error {
			_, err := q.Query(ctx, "select id from block")
			return err
		}},
		{name: "query row scan", slow: -1, run: func(q RowQuerier) error {
			var n int64
			return q.QueryRow(ctx, "select max(block_no) from block").Scan(&n)
		}},
		{name: "query row scan error", err: down, run: func(q RowQuerier) error {
			var n int64
			return q.QueryRow(ctx, "select max(block_no) from block").Scan(&n)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &recTracer{}
			q := traced{q: fakePgx{err: tc.err}, tracer: tr, slow: tc.slow}
			err := tc.run(q)
			if !errors.Is(err, tc.err) {
				t.Fatalf("err = %v, want %v", err, tc.err)
			}
			if len(tr.events) != 1 {
				t.Fatalf("events = %d", len(tr.events))
			}
			ev := tr.events[0]
			if !errors.Is(ev.Err, tc.err) || ev.SQL == "" {
				t.Fatalf("event = %+v", ev)
			}
			if want := tc.slow >= 0; ev.Slow != want {
				t.Fatalf("slow = %v with threshold %v", ev.Slow, tc.slow)
			}
		})
	}
}

func TestTraced_NoTracer(t *testing.T) {
	t.Parallel()

	rs, err := traced{q: fakePgx{cols: []string{"id", "hash"}}}.Query(context.Background(), "select id, hash from block")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got := rs.Columns(); !reflect.DeepEqual(got, []string{"id", "hash"}) {
		t.Fatalf("Columns = %v", got)
	}
}

type fakeNotifier struct {
	queue  []*pgconn.Notification
	closes int
}

func (f *fakeNotifier) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(f.queue) == 0 {
		return nil, errors.New("conn closed")
	}
	n := f.queue[0]
	f.queue = f.queue[1:]
	return n, nil
}

func (f *fakeNotifier) Close(context.Context) error { f.closes++; return nil }

func TestPGStream(t *testing.T) {
	t.Parallel()

	fn := &fakeNotifier{queue: []*pgconn.Notification{{PID: 42, Channel: "block_insert", Payload: `{"record":{"id":1}}`}}}
	s := &pgStream{conn: fn}

	n, err := s.Next(context.Background())
	if err != nil || n != (Notification{Channel: "block_insert", Payload: `{"record":{"id":1}}`, PID: 42}) {
		t.Fatalf("Next = %+v, %v", n, err)
	}
	if _, err := s.Next(context.Background()); err == nil {
		t.Fatalf("expected error once the session is gone")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Next on cancelled ctx = %v", err)
	}

	_ = s.Close(context.Background())
	_ = s.Close(context.Background())
	if fn.closes != 1 {
		t.Fatalf("closes = %d", fn.closes)
	}
}

func TestListen_RejectsEmptyChannel(t *testing.T) {
	t.Parallel()

	if _, err := (&pgAdapter{}).Listen(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty channel")
	}
}
