package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	perr "cardanoidx/internal/platform/errors"
	"cardanoidx/internal/platform/logger"
	"cardanoidx/internal/platform/store"
	"cardanoidx/internal/services/indexer/domain"

	"github.com/google/uuid"
)

// closeTimeout bounds releasing the dedicated connection
const closeTimeout = 5 * time.Second

// Subscriber opens subscriptions over a store.Listener
type Subscriber struct {
	listener store.Listener
	newID    func() string
}

// NewSubscriber creates a Subscriber; it panics on a nil listener
func NewSubscriber(l store.Listener) *Subscriber {
	if l == nil {
		panic("realtime.Subscriber requires a non nil Listener")
	}
	return &Subscriber{listener: l, newID: uuid.NewString}
}

// Subscribe starts delivering events of collection and event to onRecord, one at a time in transport order
// onError fires at most once, when delivery fails; the subscription is then failed
// cancelling ctx cancels the subscription
func (s *Subscriber) Subscribe(ctx context.Context, collection, event string, onRecord func(domain.Record), onError func(error)) (*Subscription, error) {
	if onRecord == nil {
		return nil, perr.WithField(perr.InvalidArgf("onRecord callback is required"), "onRecord")
	}
	ch, err := Channel(collection, event)
	if err != nil {
		return nil, err
	}
	stream, err := s.listener.Listen(ctx, ch)
	if err != nil {
		return nil, perr.FromPostgresf(err, "listen %s", ch)
	}

	id := s.newID()
	sctx, cancel := context.WithCancel(logger.WithSubscription(ctx, id))
	sub := &Subscription{
		id:       id,
		channel:  ch,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    domain.StateActive,
		onRecord: onRecord,
		onError:  onError,
	}
	logger.C(sctx).Info().Str("channel", ch).Msg("subscription opened")
	go sub.run(sctx, stream)
	return sub, nil
}

// Subscription is a live feed on one channel
type Subscription struct {
	id      string
	channel string
	cancel  context.CancelFunc
	done    chan struct{}

	mu    sync.Mutex
	state domain.SubscriptionState
	err   error

	inCallback atomic.Bool

	onRecord func(domain.Record)
	onError  func(error)
}

var _ domain.Subscription = (*Subscription)(nil)

// ID returns the subscription id used in logs
func (s *Subscription) ID() string { return s.id }

// Channel returns the LISTEN channel
func (s *Subscription) Channel() string { return s.channel }

// State returns the current lifecycle state
func (s *Subscription) State() domain.SubscriptionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the delivery error of a failed subscription
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the listener has exited and its connection is released
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Cancel stops the subscription; it is idempotent
// no callback starts after Cancel returns; it waits for the listener to exit
// unless a callback is running, in which case that callback completes on its own
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if s.state == domain.StateActive {
		s.state = domain.StateCancelled
	}
	s.mu.Unlock()
	s.cancel()
	if s.inCallback.Load() {
		return
	}
	<-s.done
}

// run owns the stream: Next and Close are only called here
func (s *Subscription) run(ctx context.Context, stream store.NotificationStream) {
	log := logger.C(ctx).With().Str("channel", s.channel).Logger()
	defer close(s.done)
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := stream.Close(cctx); err != nil {
			log.Warn().Err(err).Msg("subscription close failed")
		}
		log.Info().Str("state", string(s.State())).Msg("subscription closed")
	}()

	for {
		n, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.stop()
				return
			}
			s.fail(perr.FromPostgresf(err, "subscription %s: receive", s.channel))
			return
		}
		rec, err := ParseEvent(n.Payload)
		if err != nil {
			s.fail(perr.WithOp(err, "subscription "+s.channel))
			return
		}
		delivered, err := s.deliver(rec)
		if err != nil {
			s.fail(err)
			return
		}
		if !delivered {
			// cancelled while this notification was buffered
			return
		}
	}
}

// deliver runs onRecord unless the subscription left the active state
func (s *Subscription) deliver(rec domain.Record) (delivered bool, err error) {
	s.mu.Lock()
	if s.state != domain.StateActive {
		s.mu.Unlock()
		return false, nil
	}
	s.inCallback.Store(true)
	s.mu.Unlock()
	defer s.inCallback.Store(false)

	defer func() {
		if r := recover(); r != nil {
			delivered, err = false, perr.PanicErrf("subscription %s: callback panicked: %v", s.channel, r)
		}
	}()
	s.onRecord(rec)
	return true, nil
}

// stop marks a subscription whose context ended as cancelled
func (s *Subscription) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.StateActive {
		s.state = domain.StateCancelled
	}
}

// fail moves an active subscription to failed and reports err once
func (s *Subscription) fail(err error) {
	s.mu.Lock()
	if s.state != domain.StateActive {
		s.mu.Unlock()
		return
	}
	s.state = domain.StateFailed
	s.err = err
	s.mu.Unlock()

	logger.Named("realtime").Error().Err(err).Str("subscription_id", s.id).Str("channel", s.channel).Msg("subscription failed")
	if s.onError != nil {
		// onError may call Cancel; it must not wait on this goroutine
		s.inCallback.Store(true)
		defer s.inCallback.Store(false)
		s.onError(err)
	}
}
