package store

import (
	"context"
	"errors"
	"time"

	"github.com/example/forum-platform/internal/forumv1"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrThreadOnly rejects a title, category or tag edit on a comment.
	ErrThreadOnly = errors.New("field applies to threads only")
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account row. PasswordHash is a bcrypt hash.
type User struct {
	ID           string
	Username     string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}

// NewPost describes a thread (ParentID nil, Title set) or a reply.
type NewPost struct {
	AuthorID string
	ParentID *int64
	Title    string
	Content  string
	Category string
	Tag      string
}

// PostPatch edits a post. Nil fields keep their value.
type PostPatch struct {
	Title    *string
	Content  *string
	Category *string
	Tag      *string
}

func (p PostPatch) threadOnly() bool {
	return p.Title != nil || p.Category != nil || p.Tag != nil
}

// ListQuery selects a page of threads. Sort is one of forumv1.SortNew,
// SortTop or SortActive. Category and Tag, when set, must match exactly.
type ListQuery struct {
	Query    string
	Category string
	Tag      string
	Sort     string
	Limit    int
	Offset   int
}

// Store persists users, posts, reactions and saves. A thread is a post with
// no parent; every reply carries the id of its root thread and its depth.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)
	SetRole(ctx context.Context, username, role string) error

	CreatePost(ctx context.Context, p NewPost) (forumv1.Post, error)
	Thread(ctx context.Context, id int64) (forumv1.ThreadDetail, error)
	ListThreads(ctx context.Context, q ListQuery) ([]forumv1.Post, error)
	DeleteThread(ctx context.Context, id int64, userID string, admin bool) error
	// UpdatePost applies patch when userID wrote the post or admin is set.
	UpdatePost(ctx context.Context, id int64, userID string, admin bool, patch PostPatch) (forumv1.Post, error)
	// CanModify reports whether userID may edit or delete the post.
	CanModify(ctx context.Context, id int64, userID string, admin bool) (bool, error)
	Facets(ctx context.Context) (forumv1.Facets, error)

	// Interactions returns counts for every existing id in ids and, when
	// userID is set, that user's flags. Unknown ids are omitted.
	Interactions(ctx context.Context, userID string, ids []int64) (map[int64]forumv1.Interaction, error)
	// SetSignal adds or removes one like, dislike or save. Repeating a call
	// is a no-op.
	SetSignal(ctx context.Context, postID int64, userID, signal string, on bool) error
	Saved(ctx context.Context, userID string) ([]forumv1.Post, error)

	Ping(ctx context.Context) error
}
