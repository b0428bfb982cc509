package refresh

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, s *Subscription) uint64 {
	t.Helper()
	select {
	case v, ok := <-s.C():
		require.True(t, ok, "subscription closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("no refresh delivered")
		return 0
	}
}

func TestBroadcastReachesEverySubscriber(t *testing.T) {
	b := NewBus()
	sidebar := b.Subscribe()
	threadView := b.Subscribe()
	defer sidebar.Close()
	defer threadView.Close()

	v := b.Trigger()
	assert.Equal(t, uint64(1), v)
	assert.Equal(t, v, recv(t, sidebar))
	assert.Equal(t, v, recv(t, threadView))
}

func TestTriggeringComponentIsNotified(t *testing.T) {
	b := NewBus()
	self := b.Subscribe()
	defer self.Close()

	b.Trigger()
	assert.Equal(t, uint64(1), recv(t, self))
}

func TestMissedVersionsCoalesce(t *testing.T) {
	b := NewBus()
	s := b.Subscribe()
	defer s.Close()

	for i := 0; i < 5; i++ {
		b.Trigger()
	}
	assert.Equal(t, uint64(5), recv(t, s))
	select {
	case v := <-s.C():
		t.Fatalf("unexpected extra delivery %d", v)
	default:
	}
	assert.Equal(t, uint64(5), b.Version())
}

func TestSubscriptionClose(t *testing.T) {
	b := NewBus()
	s := b.Subscribe()
	s.Close()
	s.Close()
	assert.Zero(t, b.Subscribers())

	b.Trigger()
	_, ok := <-s.C()
	assert.False(t, ok)
}

func TestBusClose(t *testing.T) {
	b := NewBus()
	s := b.Subscribe()
	b.Close()

	_, ok := <-s.C()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), b.Trigger())

	late := b.Subscribe()
	_, ok = <-late.C()
	assert.False(t, ok)
	late.Close()
}

func TestWatch(t *testing.T) {
	b := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan uint64, 8)
	done := make(chan error, 1)
	go func() { done <- b.Watch(ctx, func(v uint64) { got <- v }) }()

	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, time.Second, time.Millisecond)
	b.Trigger()
	select {
	case v := <-got:
		assert.Equal(t, uint64(1), v)
	case <-time.After(time.Second):
		t.Fatal("watch callback not called")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Zero(t, b.Subscribers())
}

func TestConcurrentTriggers(t *testing.T) {
	b := NewBus()
	s := b.Subscribe()
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Trigger()
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), b.Version())
	assert.Equal(t, uint64(50), recv(t, s))
}
