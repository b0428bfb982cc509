package view

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/forum-platform/services/web/internal/remote"
)

type SavedRemote interface {
	SavedThreads(ctx context.Context) ([]remote.Post, error)
}

// SavedList caches each user's saved threads until the next refresh signal
// or the TTL, whichever comes first. A read that was out when a signal
// arrived is served once but not cached.
type SavedList struct {
	remote SavedRemote
	cache  *TTLCache[[]remote.Post]
	log    *zap.Logger

	mu    sync.Mutex
	epoch uint64
}

func NewSavedList(r SavedRemote, ttl time.Duration, log *zap.Logger) *SavedList {
	if log == nil {
		log = zap.NewNop()
	}
	return &SavedList{remote: r, cache: NewTTLCache[[]remote.Post](ttl), log: log}
}

// Get returns actor's saved threads. The caller's token must be in ctx.
func (s *SavedList) Get(ctx context.Context, actor string) ([]remote.Post, error) {
	if posts, ok := s.cache.Get(actor); ok {
		return posts, nil
	}
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	posts, err := s.remote.SavedThreads(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []remote.Post{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.log.Debug("saved list read overtaken by refresh", zap.String("actor", actor))
		return posts, nil
	}
	s.cache.Set(actor, posts)
	return posts, nil
}

// Invalidate drops every cached list.
func (s *SavedList) Invalidate(version uint64) {
	s.mu.Lock()
	s.epoch++
	s.cache.Purge()
	s.mu.Unlock()
	s.log.Debug("saved lists invalidated", zap.Uint64("version", version))
}

// Follow invalidates on every version watch delivers until ctx is done.
func (s *SavedList) Follow(ctx context.Context, watch func(context.Context, func(uint64)) error) error {
	return watch(ctx, s.Invalidate)
}
