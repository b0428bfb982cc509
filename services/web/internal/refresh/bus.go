// Package refresh broadcasts "something changed, re-read" to every
// interested component in the process.
package refresh

import (
	"context"
	"sync"
)

// Bus is a version counter with broadcast. A trigger carries no payload;
// subscribers re-fetch whatever they show.
type Bus struct {
	mu      sync.Mutex
	version uint64
	subs    map[*Subscription]struct{}
	closed  bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscription receives the latest version after each trigger. Missed
// versions are coalesced.
type Subscription struct {
	bus  *Bus
	ch   chan uint64
	once sync.Once
}

func (s *Subscription) C() <-chan uint64 { return s.ch }

// Close detaches the subscription and closes its channel.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	s.once.Do(func() {
		delete(s.bus.subs, s)
		close(s.ch)
	})
}

// Trigger bumps the version and notifies every subscriber, the caller's own
// included. It returns the new version, or the current one after Close.
func (b *Bus) Trigger() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return b.version
	}
	b.version++
	for s := range b.subs {
		deliver(s.ch, b.version)
	}
	return b.version
}

// deliver replaces whatever is waiting in the one-slot mailbox.
func deliver(ch chan uint64, v uint64) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

func (b *Bus) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// Subscribe registers a new subscriber. On a closed bus the returned
// subscription's channel is already closed.
func (b *Bus) Subscribe() *Subscription {
	s := &Subscription{bus: b, ch: make(chan uint64, 1)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.once.Do(func() { close(s.ch) })
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Watch calls fn with each new version until ctx is done or the bus closes.
func (b *Bus) Watch(ctx context.Context, fn func(version uint64)) error {
	s := b.Subscribe()
	defer s.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v, ok := <-s.C():
			if !ok {
				return nil
			}
			fn(v)
		}
	}
}

// Close ends every subscription. Later triggers do nothing.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		s.closeLocked()
	}
}

// Subscribers reports the number of open subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
