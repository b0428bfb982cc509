// Package remote talks to the forum data service. Every implementation sorts
// responses into the same outcomes so callers never look at transport details.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/services/web/internal/thread"
)

type (
	Post        = forumv1.Post
	Interaction = forumv1.Interaction
	Session     = forumv1.Session
	ListQuery   = forumv1.ListThreadsRequest
	NewThread   = forumv1.CreateThreadRequest
	PostEdit    = forumv1.UpdatePostRequest
	Facets      = forumv1.Facets
)

// Signal is a reaction or save a user toggles on a post.
type Signal string

const (
	Like    Signal = forumv1.SignalLike
	Dislike Signal = forumv1.SignalDislike
	Save    Signal = forumv1.SignalSave
)

// ThreadDetail is a thread with its comments as validated flat records.
type ThreadDetail struct {
	Thread   Post
	Comments []thread.Record
}

// Client is the forum service as seen by the web tier.
type Client interface {
	Thread(ctx context.Context, id int64) (ThreadDetail, error)
	Threads(ctx context.Context, q ListQuery) ([]Post, error)
	CreateThread(ctx context.Context, t NewThread) (Post, error)
	DeleteThread(ctx context.Context, id int64) error
	UpdatePost(ctx context.Context, e PostEdit) (Post, error)
	// Authorize reports whether the caller may edit or delete the post.
	Authorize(ctx context.Context, postID int64) (bool, error)
	Facets(ctx context.Context) (Facets, error)
	CreateComment(ctx context.Context, parentID int64, content string) (thread.Record, error)
	Interaction(ctx context.Context, postID int64) (Interaction, error)
	BatchInteractions(ctx context.Context, postIDs []int64) (map[int64]Interaction, error)
	SetSignal(ctx context.Context, postID int64, sig Signal, on bool) error
	SavedThreads(ctx context.Context) ([]Post, error)
	Register(ctx context.Context, username, password string) (Session, error)
	Login(ctx context.Context, username, password string) (Session, error)
}

type ctxKeyToken struct{}

// WithToken attaches the caller's bearer token to ctx for forwarding.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyToken{}, token)
}

func tokenFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyToken{}).(string)
	return v
}

// Outcome is the class of a forum response.
type Outcome int

const (
	OutcomeData Outcome = iota
	OutcomeEmpty
	OutcomeNotFound
	OutcomeUnauthorized
	OutcomeTransient
	OutcomeRejected
)

// Kind classifies a failed call.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindInvalid
	KindConflict
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindInvalid:
		return "invalid"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method on failure.
type Error struct {
	Kind    Kind
	Op      string
	Status  int    // HTTP status, 0 for gRPC and transport failures
	Code    string // forum error code, e.g. THREAD_NOT_FOUND
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("forum %s: %s (%s): %s", e.Op, e.Kind, e.Code, msg)
	}
	return fmt.Sprintf("forum %s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// IsRetryable reports transient failures (network, timeouts, 5xx, 429).
func IsRetryable(err error) bool { return KindOf(err) == KindTransient }

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// RecordFromPost converts a wire post into a comment record.
func RecordFromPost(p Post) thread.Record {
	return thread.Record{
		ID:            p.ID,
		ParentID:      p.ParentID,
		Author:        p.Author,
		Content:       p.Content,
		CreatedAt:     p.CreatedAt,
		LikesCount:    p.LikesCount,
		DislikesCount: p.DislikesCount,
		Depth:         p.Depth,
	}
}
