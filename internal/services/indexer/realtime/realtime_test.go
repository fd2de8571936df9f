package realtime

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	perr "cardanoidx/internal/platform/errors"
	"cardanoidx/internal/platform/store"
	"cardanoidx/internal/services/indexer/domain"
)

type fakeStream struct {
	ch     chan store.Notification
	errs   chan error
	closed atomic.Int32
}

func newStream() *fakeStream {
	return &fakeStream{ch: make(chan store.Notification, 16), errs: make(chan error, 1)}
}

func (f *fakeStream) Next(ctx context.Context) (store.Notification, error) {
	select {
	case <-ctx.Done():
		return store.Notification{}, ctx.Err()
	case n := <-f.ch:
		return n, nil
	case err := <-f.errs:
		return store.Notification{}, err
	}
}

func (f *fakeStream) Close(context.Context) error {
	f.closed.Add(1)
	return nil
}

func (f *fakeStream) push(payload string) {
	f.ch <- store.Notification{Channel: "block_insert", Payload: payload}
}

type fakeListener struct {
	stream   *fakeStream
	err      error
	channels []string
}

func (l *fakeListener) Listen(_ context.Context, channel string) (store.NotificationStream, error) {
	l.channels = append(l.channels, channel)
	if l.err != nil {
		return nil, l.err
	}
	return l.stream, nil
}

func blockPayload(no int) string {
	return `{"table":"block","type":"INSERT","record":{"block_no":` + itoa(no) + `,"slot_no":` + itoa(no*20) + `},"old_record":null}`
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestChannel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		collection, event, want, field string
	}{
		{"block", "INSERT", "block_insert", ""},
		{" Tx_Out ", "delete", "tx_out_delete", ""},
		{"block; drop table x", "INSERT", "", "collection"},
		{"", "INSERT", "", "collection"},
		{"block", "TRUNCATE", "", "event"},
	}
	for _, tc := range cases {
		got, err := Channel(tc.collection, tc.event)
		if tc.field == "" {
			if err != nil || got != tc.want {
				t.Fatalf("Channel(%q,%q) = %q, %v", tc.collection, tc.event, got, err)
			}
			continue
		}
		e, ok := perr.As(err)
		if !ok || e.Code() != perr.ErrorCodeInvalidArgument || e.Field() != tc.field {
			t.Fatalf("Channel(%q,%q) err = %v", tc.collection, tc.event, err)
		}
	}
}

func TestTriggerDDL(t *testing.T) {
	t.Parallel()

	ddl, err := TriggerDDL("block", "INSERT")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"create or replace function cardanoidx_notify_block_insert()",
		"pg_notify('block_insert'",
		"'old_record', row_to_json(OLD)",
		"create trigger cardanoidx_block_insert after insert on block for each row",
	} {
		if !strings.Contains(ddl, want) {
			t.Fatalf("ddl missing %q:\n%s", want, ddl)
		}
	}
	if _, err := TriggerDDL("bad-name", "INSERT"); err == nil {
		t.Fatalf("expected error for bad identifier")
	}
}

func TestParseEvent(t *testing.T) {
	t.Parallel()

	rec, err := ParseEvent(blockPayload(7))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Table != "block" || rec.Type != domain.EventInsert || rec.Get("block_no").Int() != 7 || rec.OldRaw != "" {
		t.Fatalf("rec = %+v", rec)
	}

	upd, err := ParseEvent(`{"table":"tx_out","type":"update","record":{"id":1,"consumed_by_tx_id":9},"old_record":{"id":1,"consumed_by_tx_id":null}}`)
	if err != nil {
		t.Fatal(err)
	}
	if upd.Type != domain.EventUpdate || upd.Get("consumed_by_tx_id").Int() != 9 || upd.Old("id").Int() != 1 || upd.OldRaw == "" {
		t.Fatalf("upd = %+v", upd)
	}

	for _, bad := range []string{"", "{", "[1,2]", `{"record":{}}`} {
		if _, err := ParseEvent(bad); !perr.IsCode(err, perr.ErrorCodeJSON) {
			t.Fatalf("ParseEvent(%q) err = %v", bad, err)
		}
	}
}

func TestSubscribe_DeliversInOrderThenCancels(t *testing.T) {
	t.Parallel()

	st := newStream()
	l := &fakeListener{stream: st}
	var (
		mu  sync.Mutex
		got []int64
	)
	sub, err := NewSubscriber(l).Subscribe(context.Background(), "block", "INSERT", func(r domain.Record) {
		mu.Lock()
		got = append(got, r.Get("block_no").Int())
		mu.Unlock()
	}, func(err error) { t.Errorf("unexpected onError: %v", err) })
	if err != nil {
		t.Fatal(err)
	}
	if l.channels[0] != "block_insert" || sub.Channel() != "block_insert" || sub.ID() == "" {
		t.Fatalf("channel = %v id = %q", l.channels, sub.ID())
	}

	for i := 1; i <= 3; i++ {
		st.push(blockPayload(i))
	}
	waitFor(t, "three deliveries", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	})

	sub.Cancel()
	sub.Cancel()
	select {
	case <-sub.Done():
	default:
		t.Fatalf("Cancel returned before the listener exited")
	}
	if sub.State() != domain.StateCancelled || sub.Err() != nil {
		t.Fatalf("state = %s err = %v", sub.State(), sub.Err())
	}
	if st.closed.Load() != 1 {
		t.Fatalf("stream closed %d times", st.closed.Load())
	}

	st.push(blockPayload(4))
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("got = %v", got)
	}
}

func TestSubscribe_ListenErrorIsTransport(t *testing.T) {
	t.Parallel()

	l := &fakeListener{err: io.ErrUnexpectedEOF}
	sub, err := NewSubscriber(l).Subscribe(context.Background(), "block", "INSERT", func(domain.Record) {}, nil)
	if sub != nil || !perr.IsTransport(err) {
		t.Fatalf("sub = %v err = %v", sub, err)
	}
}

func TestSubscribe_RejectsBeforeListening(t *testing.T) {
	t.Parallel()

	l := &fakeListener{stream: newStream()}
	s := NewSubscriber(l)
	if _, err := s.Subscribe(context.Background(), "block", "INSERT", nil, nil); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("nil onRecord err = %v", err)
	}
	if _, err := s.Subscribe(context.Background(), "block", "UPSERT", func(domain.Record) {}, nil); err == nil {
		t.Fatalf("expected event error")
	}
	if len(l.channels) != 0 {
		t.Fatalf("listened on %v", l.channels)
	}
}

func TestSubscribe_FailuresReportOnce(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		inject func(*fakeStream)
		onRec  func(domain.Record)
		code   perr.ErrorCode
	}{
		{
			name:   "malformed payload",
			inject: func(st *fakeStream) { st.push("not json") },
			onRec:  func(domain.Record) {},
			code:   perr.ErrorCodeJSON,
		},
		{
			name:   "connection lost",
			inject: func(st *fakeStream) { st.errs <- io.ErrUnexpectedEOF },
			onRec:  func(domain.Record) {},
			code:   perr.ErrorCodeUnavailable,
		},
		{
			name:   "callback panic",
			inject: func(st *fakeStream) { st.push(blockPayload(1)) },
			onRec:  func(domain.Record) { panic("boom") },
			code:   perr.ErrorCodePanic,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newStream()
			var calls atomic.Int32
			var reported atomic.Value
			sub, err := NewSubscriber(&fakeListener{stream: st}).Subscribe(context.Background(), "block", "INSERT", tc.onRec, func(err error) {
				calls.Add(1)
				reported.Store(err)
			})
			if err != nil {
				t.Fatal(err)
			}
			tc.inject(st)
			<-sub.Done()

			if sub.State() != domain.StateFailed || calls.Load() != 1 {
				t.Fatalf("state = %s onError calls = %d", sub.State(), calls.Load())
			}
			if got := perr.CodeOf(sub.Err()); got != tc.code {
				t.Fatalf("code = %v, want %v (%v)", got, tc.code, sub.Err())
			}
			if e, _ := reported.Load().(error); e != sub.Err() {
				t.Fatalf("reported %v, stored %v", e, sub.Err())
			}
			sub.Cancel()
			if sub.State() != domain.StateFailed {
				t.Fatalf("cancel must not leave failed, got %s", sub.State())
			}
			if st.closed.Load() != 1 {
				t.Fatalf("stream closed %d times", st.closed.Load())
			}
		})
	}
}

func TestCancel_FromInsideCallback(t *testing.T) {
	t.Parallel()

	st := newStream()
	var (
		sub   *Subscription
		ready = make(chan struct{})
		calls atomic.Int32
	)
	var err error
	sub, err = NewSubscriber(&fakeListener{stream: st}).Subscribe(context.Background(), "block", "INSERT", func(domain.Record) {
		<-ready
		calls.Add(1)
		sub.Cancel()
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	st.push(blockPayload(1))
	st.push(blockPayload(2))
	close(ready)

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("listener did not exit after cancel from callback")
	}
	if calls.Load() != 1 || sub.State() != domain.StateCancelled {
		t.Fatalf("calls = %d state = %s", calls.Load(), sub.State())
	}
}

func TestCancel_FromOnError(t *testing.T) {
	t.Parallel()

	st := newStream()
	var sub *Subscription
	var err error
	sub, err = NewSubscriber(&fakeListener{stream: st}).Subscribe(context.Background(), "block", "INSERT",
		func(domain.Record) {},
		func(error) { sub.Cancel() },
	)
	if err != nil {
		t.Fatal(err)
	}
	st.push("{")
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("Cancel inside onError deadlocked")
	}
}

func TestParentContextCancels(t *testing.T) {
	t.Parallel()

	st := newStream()
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := NewSubscriber(&fakeListener{stream: st}).Subscribe(ctx, "block", "INSERT", func(domain.Record) {}, func(err error) {
		t.Errorf("unexpected onError: %v", err)
	})
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	<-sub.Done()
	if sub.State() != domain.StateCancelled {
		t.Fatalf("state = %s", sub.State())
	}
}

func TestNewSubscriber_NilPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewSubscriber(nil)
}
