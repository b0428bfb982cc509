package handlers

import (
	"context"
	"net/http"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/services/web/internal/interaction"
	"github.com/example/forum-platform/services/web/internal/remote"
)

type PostEditor interface {
	UpdatePost(ctx context.Context, e remote.PostEdit) (remote.Post, error)
	Authorize(ctx context.Context, postID int64) (bool, error)
}

type FacetLister interface {
	Facets(ctx context.Context) (remote.Facets, error)
}

type updatePostReq struct {
	Title    *string `json:"title" validate:"omitempty,max=200"`
	Content  *string `json:"content" validate:"omitempty,max=20000"`
	Category *string `json:"category" validate:"omitempty,max=32"`
	Tag      *string `json:"tag" validate:"omitempty,max=32"`
}

// UpdatePost edits a thread or a comment. Omitted fields are unchanged.
func UpdatePost(c PostEditor, n interaction.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid, "id")
		if !ok {
			return
		}
		var req updatePostReq
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if req.Title == nil && req.Content == nil && req.Category == nil && req.Tag == nil {
			api.BadRequest(w, "VALIDATION_FAILED", "Invalid request", rid, map[string]any{"content": "required"})
			return
		}
		ctx, _ := forward(r)
		post, err := c.UpdatePost(ctx, remote.PostEdit{
			ID: id, Title: req.Title, Content: req.Content, Category: req.Category, Tag: req.Tag,
		})
		if err != nil {
			writeRemoteError(w, rid, err)
			return
		}
		n.Trigger()
		api.WriteJSON(w, http.StatusOK, post)
	}
}

// AuthorizePost tells the caller whether they may edit or delete a post.
// Anonymous callers are answered locally.
func AuthorizePost(c PostEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid, "id")
		if !ok {
			return
		}
		ctx, actor := forward(r)
		if actor == "" {
			api.WriteJSON(w, http.StatusOK, map[string]bool{"authorized": false})
			return
		}
		allowed, err := c.Authorize(ctx, id)
		if err != nil {
			writeRemoteError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]bool{"authorized": allowed})
	}
}

func ListFacets(c FacetLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := forward(r)
		f, err := c.Facets(ctx)
		if err != nil {
			writeRemoteError(w, httpserver.RequestIDFromContext(r.Context()), err)
			return
		}
		api.WriteJSON(w, http.StatusOK, f)
	}
}
