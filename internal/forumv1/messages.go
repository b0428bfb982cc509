// Package forumv1 is the wire contract of the forum data service. The same
// message types are served as JSON over HTTP and over gRPC (JSON codec).
package forumv1

import "time"

// Signals a user can set on a post.
const (
	SignalLike    = "like"
	SignalDislike = "dislike"
	SignalSave    = "save"
)

// ValidSignal reports whether s names a known signal.
func ValidSignal(s string) bool {
	switch s {
	case SignalLike, SignalDislike, SignalSave:
		return true
	}
	return false
}

// Thread sort orders accepted by ListThreads.
const (
	SortNew    = "new"
	SortTop    = "top"
	SortActive = "active"
)

// Post is a thread (no parent, depth 0) or a comment.
type Post struct {
	ID            int64     `json:"id"`
	ThreadID      int64     `json:"thread_id"`
	ParentID      *int64    `json:"parent_id"`
	Title         string    `json:"title,omitempty"`
	Content       string    `json:"content"`
	Category      string    `json:"category,omitempty"`
	Tag           string    `json:"tag,omitempty"`
	Author        string    `json:"author"`
	AuthorID      string    `json:"author_id"`
	CreatedAt     time.Time `json:"created_at"`
	LikesCount    int       `json:"likes_count"`
	DislikesCount int       `json:"dislikes_count"`
	CommentsCount int       `json:"comments_count"`
	Depth         int       `json:"depth"`
}

// ThreadDetail carries a thread and every descendant as a flat list in creation order.
type ThreadDetail struct {
	Thread   Post   `json:"thread"`
	Comments []Post `json:"comments"`
}

// Interaction is the caller's view of one post.
type Interaction struct {
	Liked         bool `json:"liked"`
	Disliked      bool `json:"disliked"`
	Saved         bool `json:"saved"`
	LikesCount    int  `json:"likes_count"`
	DislikesCount int  `json:"dislikes_count"`
}

type Empty struct{}

type GetThreadRequest struct {
	ID int64 `json:"id"`
}

type DeleteThreadRequest struct {
	ID int64 `json:"id"`
}

type ListThreadsRequest struct {
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Sort     string `json:"sort,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

type ListThreadsResponse struct {
	Threads []Post `json:"threads"`
}

type CreateThreadRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"required,max=20000"`
	Category string `json:"category,omitempty" validate:"omitempty,max=32"`
	Tag      string `json:"tag,omitempty" validate:"omitempty,max=32"`
}

// UpdatePostRequest edits a thread or a comment. Nil fields are left alone;
// title, category and tag apply to threads only.
type UpdatePostRequest struct {
	ID       int64   `json:"id"`
	Title    *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Content  *string `json:"content,omitempty" validate:"omitempty,max=20000"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=32"`
	Tag      *string `json:"tag,omitempty" validate:"omitempty,max=32"`
}

type AuthorizePostRequest struct {
	ID int64 `json:"id"`
}

// Authorization tells whether the caller may edit or delete a post.
type Authorization struct {
	Authorized bool `json:"authorized"`
}

// Facets lists the categories and tags in use, sorted by name.
type Facets struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

type CreateCommentRequest struct {
	ParentID int64  `json:"parent_id"`
	Content  string `json:"content" validate:"required,max=20000"`
}

type GetInteractionRequest struct {
	PostID int64 `json:"post_id"`
}

type BatchInteractionsRequest struct {
	IDs []int64 `json:"ids" validate:"max=500"`
}

type BatchInteractionsResponse struct {
	Items map[int64]Interaction `json:"items"`
}

type SetSignalRequest struct {
	PostID int64  `json:"post_id"`
	Signal string `json:"signal"`
	On     bool   `json:"on"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by Register and Login.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
}
