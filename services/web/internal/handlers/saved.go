package handlers

import (
	"context"
	"net/http"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/services/web/internal/remote"
)

type SavedReader interface {
	Get(ctx context.Context, actor string) ([]remote.Post, error)
}

// Saved returns the caller's saved threads for the sidebar.
func Saved(s SavedReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		ctx, actor := forward(r)
		if actor == "" {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}
		posts, err := s.Get(ctx, actor)
		if err != nil {
			writeRemoteError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"threads": posts})
	}
}
