package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/forum-platform/internal/forumv1"
)

type reactionKey struct {
	postID int64
	userID string
	kind   string
}

// InMemory is a development-only Store.
type InMemory struct {
	mu        sync.RWMutex
	nextID    int64
	seq       int64
	users     map[string]User  // id -> user
	byName    map[string]string // lower(username) -> id
	posts     map[int64]forumv1.Post
	reactions map[reactionKey]int64 // -> insertion seq
	likes     map[int64]int
	dislikes  map[int64]int

	now func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:     make(map[string]User),
		byName:    make(map[string]string),
		posts:     make(map[int64]forumv1.Post),
		reactions: make(map[reactionKey]int64),
		likes:     make(map[int64]int),
		dislikes:  make(map[int64]int),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemory) CreateUser(_ context.Context, username, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(username)
	if _, ok := s.byName[key]; ok {
		return User{}, ErrUsernameTaken
	}
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		Role:         RoleUser,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}
	s.users[u.ID] = u
	s.byName[key] = u.ID
	return u, nil
}

func (s *InMemory) UserByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *InMemory) SetRole(_ context.Context, username, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byName[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return ErrNotFound
	}
	u := s.users[id]
	u.Role = role
	s.users[id] = u
	return nil
}

func (s *InMemory) CreatePost(_ context.Context, p NewPost) (forumv1.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.users[p.AuthorID]
	if !ok {
		return forumv1.Post{}, ErrNotFound
	}
	s.nextID++
	post := forumv1.Post{
		ID:        s.nextID,
		Title:     p.Title,
		Content:   p.Content,
		Category:  p.Category,
		Tag:       p.Tag,
		Author:    author.Username,
		AuthorID:  author.ID,
		CreatedAt: s.now(),
	}
	if p.ParentID == nil {
		post.ThreadID = post.ID
	} else {
		parent, ok := s.posts[*p.ParentID]
		if !ok {
			s.nextID--
			return forumv1.Post{}, ErrNotFound
		}
		pid := parent.ID
		post.ParentID = &pid
		post.ThreadID = parent.ThreadID
		post.Depth = parent.Depth + 1
		post.Title = ""
		post.Category = ""
		post.Tag = ""
	}
	s.posts[post.ID] = post
	return s.decorate(post), nil
}

func (s *InMemory) Thread(_ context.Context, id int64) (forumv1.ThreadDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root, ok := s.posts[id]
	if !ok || root.ParentID != nil {
		return forumv1.ThreadDetail{}, ErrNotFound
	}
	comments := []forumv1.Post{}
	for _, p := range s.posts {
		if p.ThreadID == id && p.ID != id {
			comments = append(comments, s.decorate(p))
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return forumv1.ThreadDetail{Thread: s.decorate(root), Comments: comments}, nil
}

func (s *InMemory) ListThreads(_ context.Context, q ListQuery) ([]forumv1.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(q.Query))
	var roots []forumv1.Post
	for _, p := range s.posts {
		if p.ParentID != nil {
			continue
		}
		if (q.Category != "" && p.Category != q.Category) || (q.Tag != "" && p.Tag != q.Tag) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Content), needle) {
			continue
		}
		roots = append(roots, s.decorate(p))
	}

	newer := func(a, b forumv1.Post) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}
	sort.Slice(roots, func(i, j int) bool {
		a, b := roots[i], roots[j]
		switch q.Sort {
		case forumv1.SortTop:
			if a.LikesCount != b.LikesCount {
				return a.LikesCount > b.LikesCount
			}
		case forumv1.SortActive:
			if a.CommentsCount != b.CommentsCount {
				return a.CommentsCount > b.CommentsCount
			}
		}
		return newer(a, b)
	})

	if q.Offset >= len(roots) {
		return []forumv1.Post{}, nil
	}
	roots = roots[q.Offset:]
	if q.Limit > 0 && len(roots) > q.Limit {
		roots = roots[:q.Limit]
	}
	return roots, nil
}

func (s *InMemory) DeleteThread(_ context.Context, id int64, userID string, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, ok := s.posts[id]
	if !ok || root.ParentID != nil {
		return ErrNotFound
	}
	if root.AuthorID != userID && !admin {
		return ErrForbidden
	}
	for pid, p := range s.posts {
		if p.ThreadID != id {
			continue
		}
		delete(s.posts, pid)
		delete(s.likes, pid)
		delete(s.dislikes, pid)
	}
	for k := range s.reactions {
		if _, ok := s.posts[k.postID]; !ok {
			delete(s.reactions, k)
		}
	}
	return nil
}

func (s *InMemory) UpdatePost(_ context.Context, id int64, userID string, admin bool, patch PostPatch) (forumv1.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return forumv1.Post{}, ErrNotFound
	}
	if p.AuthorID != userID && !admin {
		return forumv1.Post{}, ErrForbidden
	}
	if p.ParentID != nil && patch.threadOnly() {
		return forumv1.Post{}, ErrThreadOnly
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Tag != nil {
		p.Tag = *patch.Tag
	}
	s.posts[id] = p
	return s.decorate(p), nil
}

func (s *InMemory) CanModify(_ context.Context, id int64, userID string, admin bool) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return false, ErrNotFound
	}
	return admin || (userID != "" && p.AuthorID == userID), nil
}

func (s *InMemory) Facets(context.Context) (forumv1.Facets, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cats, tags := map[string]struct{}{}, map[string]struct{}{}
	for _, p := range s.posts {
		if p.ParentID != nil {
			continue
		}
		if p.Category != "" {
			cats[p.Category] = struct{}{}
		}
		if p.Tag != "" {
			tags[p.Tag] = struct{}{}
		}
	}
	return forumv1.Facets{Categories: sortedKeys(cats), Tags: sortedKeys(tags)}, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *InMemory) Interactions(_ context.Context, userID string, ids []int64) (map[int64]forumv1.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]forumv1.Interaction, len(ids))
	for _, id := range ids {
		if _, ok := s.posts[id]; !ok {
			continue
		}
		in := forumv1.Interaction{LikesCount: s.likes[id], DislikesCount: s.dislikes[id]}
		if userID != "" {
			_, in.Liked = s.reactions[reactionKey{id, userID, forumv1.SignalLike}]
			_, in.Disliked = s.reactions[reactionKey{id, userID, forumv1.SignalDislike}]
			_, in.Saved = s.reactions[reactionKey{id, userID, forumv1.SignalSave}]
		}
		out[id] = in
	}
	return out, nil
}

func (s *InMemory) SetSignal(_ context.Context, postID int64, userID, signal string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return ErrNotFound
	}
	key := reactionKey{postID, userID, signal}
	_, had := s.reactions[key]
	if had == on {
		return nil
	}
	delta := 1
	if on {
		s.seq++
		s.reactions[key] = s.seq
	} else {
		delete(s.reactions, key)
		delta = -1
	}
	switch signal {
	case forumv1.SignalLike:
		s.likes[postID] += delta
	case forumv1.SignalDislike:
		s.dislikes[postID] += delta
	}
	return nil
}

func (s *InMemory) Saved(_ context.Context, userID string) ([]forumv1.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type saved struct {
		post forumv1.Post
		seq  int64
	}
	var list []saved
	for k, seq := range s.reactions {
		if k.userID != userID || k.kind != forumv1.SignalSave {
			continue
		}
		if p, ok := s.posts[k.postID]; ok {
			list = append(list, saved{s.decorate(p), seq})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq > list[j].seq })
	out := make([]forumv1.Post, len(list))
	for i, sv := range list {
		out[i] = sv.post
	}
	return out, nil
}

func (s *InMemory) Ping(context.Context) error { return nil }

// decorate fills the derived counts. Callers hold s.mu.
func (s *InMemory) decorate(p forumv1.Post) forumv1.Post {
	p.LikesCount = s.likes[p.ID]
	p.DislikesCount = s.dislikes[p.ID]
	p.CommentsCount = 0
	if p.ParentID == nil {
		for _, c := range s.posts {
			if c.ThreadID == p.ID && c.ID != p.ID {
				p.CommentsCount++
			}
		}
	}
	return p
}

var _ Store = (*InMemory)(nil)
