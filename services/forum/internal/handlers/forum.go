package handlers

import (
	"context"

	"github.com/example/forum-platform/internal/forumv1"
)

// Forum is the operation set served over HTTP. *app.App implements it.
type Forum interface {
	Register(ctx context.Context, req forumv1.RegisterRequest) (forumv1.Session, error)
	Login(ctx context.Context, req forumv1.LoginRequest) (forumv1.Session, error)
	Threads(ctx context.Context, req forumv1.ListThreadsRequest) ([]forumv1.Post, error)
	Thread(ctx context.Context, id int64) (forumv1.ThreadDetail, error)
	CreateThread(ctx context.Context, req forumv1.CreateThreadRequest) (forumv1.Post, error)
	DeleteThread(ctx context.Context, id int64) error
	UpdatePost(ctx context.Context, req forumv1.UpdatePostRequest) (forumv1.Post, error)
	Authorize(ctx context.Context, id int64) (forumv1.Authorization, error)
	Facets(ctx context.Context) (forumv1.Facets, error)
	CreateComment(ctx context.Context, req forumv1.CreateCommentRequest) (forumv1.Post, error)
	Interaction(ctx context.Context, postID int64) (forumv1.Interaction, error)
	Interactions(ctx context.Context, req forumv1.BatchInteractionsRequest) (map[int64]forumv1.Interaction, error)
	SetSignal(ctx context.Context, req forumv1.SetSignalRequest) error
	Saved(ctx context.Context) ([]forumv1.Post, error)
}
