package interaction

import (
	"context"
	"errors"
	"sync"

	"github.com/example/forum-platform/services/web/internal/remote"
)

type call struct {
	Subject int64
	Signal  remote.Signal
	On      bool
}

// fakeForum stores like and dislike independently, as the forum does.
type fakeForum struct {
	mu      sync.Mutex
	posts   map[int64]*remote.Interaction
	calls   []call
	fetches int
	batches [][]int64

	// failAt makes the n-th SetSignal call (1-based) fail.
	failAt map[int]error
	// gate, when set, blocks every SetSignal until it is closed.
	gate    chan struct{}
	entered chan struct{}
	// fetchGate, when set, blocks every Interaction read until it is closed.
	fetchGate    chan struct{}
	fetchEntered chan struct{}
}

func newFakeForum() *fakeForum {
	return &fakeForum{posts: map[int64]*remote.Interaction{}, failAt: map[int]error{}}
}

func (f *fakeForum) post(id int64) *remote.Interaction {
	p, ok := f.posts[id]
	if !ok {
		p = &remote.Interaction{}
		f.posts[id] = p
	}
	return p
}

func (f *fakeForum) seed(id int64, in remote.Interaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*f.post(id) = in
}

func (f *fakeForum) snapshot(id int64) remote.Interaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.post(id)
}

func (f *fakeForum) Interaction(ctx context.Context, id int64) (remote.Interaction, error) {
	if f.fetchGate != nil {
		if f.fetchEntered != nil {
			f.fetchEntered <- struct{}{}
		}
		select {
		case <-f.fetchGate:
		case <-ctx.Done():
			return remote.Interaction{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return *f.post(id), nil
}

func (f *fakeForum) BatchInteractions(_ context.Context, ids []int64) (map[int64]remote.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]int64(nil), ids...))
	out := make(map[int64]remote.Interaction, len(ids))
	for _, id := range ids {
		if p, ok := f.posts[id]; ok {
			out[id] = *p
		}
	}
	return out, nil
}

func (f *fakeForum) SetSignal(ctx context.Context, id int64, sig remote.Signal, on bool) error {
	if f.gate != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{id, sig, on})
	if err, ok := f.failAt[len(f.calls)]; ok {
		return err
	}
	p := f.post(id)
	switch sig {
	case remote.Like:
		if p.Liked != on {
			p.Liked = on
			p.LikesCount += delta(on)
		}
	case remote.Dislike:
		if p.Disliked != on {
			p.Disliked = on
			p.DislikesCount += delta(on)
		}
	case remote.Save:
		p.Saved = on
	}
	return nil
}

func (f *fakeForum) callLog() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func delta(on bool) int {
	if on {
		return 1
	}
	return -1
}

type countingNotifier struct {
	mu sync.Mutex
	n  uint64
}

func (c *countingNotifier) Trigger() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

func (c *countingNotifier) count() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
	stale    int
}

func (r *recordingObserver) Toggled(_ Intent, outcome string) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, outcome)
	r.mu.Unlock()
}

func (r *recordingObserver) StaleDropped() {
	r.mu.Lock()
	r.stale++
	r.mu.Unlock()
}

var errDown = errors.New("forum unavailable")
