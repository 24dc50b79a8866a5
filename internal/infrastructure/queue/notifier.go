package queue

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/pkg/metrics"
)

// Notifier fans session events out to subscribers. Each subscriber owns an
// unbounded queue drained by its own goroutine, so Publish never blocks and
// every subscriber sees events in publish order.
type Notifier struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
	log    zerolog.Logger
}

type subscriber struct {
	fn func(domain.SessionEvent)

	mu      sync.Mutex
	pending []domain.SessionEvent

	wake     chan struct{}
	stop     chan struct{}
	closing  chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

// NewNotifier creates an empty Notifier.
func NewNotifier(log zerolog.Logger) *Notifier {
	return &Notifier{subs: make(map[uint64]*subscriber), log: log}
}

// Publish queues event for every current subscriber.
func (n *Notifier) Publish(event domain.SessionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		n.log.Debug().Str("kind", string(event.Kind)).Msg("session event dropped after close")
		return
	}
	for _, s := range n.subs {
		s.enqueue(event)
	}
}

// Subscribe starts delivering events to fn until the returned function is
// called or the Notifier is closed. A slow fn only delays its own queue, but
// Close waits for it.
func (n *Notifier) Subscribe(fn func(domain.SessionEvent)) func() {
	s := &subscriber{
		fn:      fn,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		closing: make(chan struct{}),
		exited:  make(chan struct{}),
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return func() {}
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = s
	n.mu.Unlock()

	go n.run(s)

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
		s.stopOnce.Do(func() { close(s.stop) })
	}
}

// Close delivers whatever is already queued, then stops every subscriber.
// It waits for every callback to return.
func (n *Notifier) Close() {
	_ = n.Shutdown(context.Background())
}

// Shutdown is Close bounded by ctx. When ctx ends first, the remaining
// queues keep draining in the background and ctx.Err() is returned.
func (n *Notifier) Shutdown(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	subs := make([]*subscriber, 0, len(n.subs))
	for id, s := range n.subs {
		subs = append(subs, s)
		delete(n.subs, id)
	}
	n.mu.Unlock()

	for _, s := range subs {
		close(s.closing)
	}
	for _, s := range subs {
		select {
		case <-s.exited:
		case <-ctx.Done():
			n.log.Warn().Err(ctx.Err()).Msg("session event subscribers still draining at shutdown")
			return ctx.Err()
		}
	}
	return nil
}

func (s *subscriber) enqueue(event domain.SessionEvent) {
	s.mu.Lock()
	s.pending = append(s.pending, event)
	s.mu.Unlock()
	metrics.SubscriberQueueDepth.Inc()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) next() (domain.SessionEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return domain.SessionEvent{}, false
	}
	ev := s.pending[0]
	s.pending[0] = domain.SessionEvent{}
	s.pending = s.pending[1:]
	metrics.SubscriberQueueDepth.Dec()
	return ev, true
}

func (s *subscriber) discard() {
	s.mu.Lock()
	metrics.SubscriberQueueDepth.Sub(float64(len(s.pending)))
	s.pending = nil
	s.mu.Unlock()
}

func (n *Notifier) run(s *subscriber) {
	defer close(s.exited)
	for {
		if !n.drain(s) {
			s.discard()
			return
		}
		select {
		case <-s.wake:
		case <-s.stop:
			s.discard()
			return
		case <-s.closing:
			n.drain(s)
			s.discard()
			return
		}
	}
}

// drain delivers queued events until the queue is empty. It returns false
// when the subscriber was stopped mid-drain.
func (n *Notifier) drain(s *subscriber) bool {
	for {
		select {
		case <-s.stop:
			return false
		default:
		}
		ev, ok := s.next()
		if !ok {
			return true
		}
		n.deliver(s, ev)
	}
}

func (n *Notifier) deliver(s *subscriber, ev domain.SessionEvent) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error().Interface("panic", r).Str("kind", string(ev.Kind)).Msg("session subscriber panicked")
		}
	}()
	s.fn(ev)
}
