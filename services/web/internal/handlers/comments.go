package handlers

import (
	"context"
	"net/http"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/services/web/internal/interaction"
	"github.com/example/forum-platform/services/web/internal/thread"
	"github.com/example/forum-platform/services/web/internal/view"
)

type CommentCreator interface {
	CreateComment(ctx context.Context, parentID int64, content string) (thread.Record, error)
}

type createCommentReq struct {
	Content string `json:"content" validate:"required,max=20000"`
}

// CreateComment replies to any post, thread or comment.
func CreateComment(c CommentCreator, n interaction.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		parentID, ok := pathID(w, r, rid, "id")
		if !ok {
			return
		}
		var req createCommentReq
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		ctx, _ := forward(r)
		rec, err := c.CreateComment(ctx, parentID, req.Content)
		if err != nil {
			writeRemoteError(w, rid, err)
			return
		}
		n.Trigger()
		api.WriteJSON(w, http.StatusCreated, view.Annotate([]*thread.Node{{Record: rec, Children: []*thread.Node{}}})[0])
	}
}
