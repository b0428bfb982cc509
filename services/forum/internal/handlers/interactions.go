package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/httpserver"
)

// GetInteraction handles GET /v1/posts/{id}/interaction.
func GetInteraction(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		in, err := f.Interaction(r.Context(), id)
		if err != nil {
			writeError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, in)
	}
}

// BatchInteractions handles POST /v1/interactions:batch.
func BatchInteractions(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req forumv1.BatchInteractionsRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		items, err := f.Interactions(r.Context(), req)
		if err != nil {
			writeError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, forumv1.BatchInteractionsResponse{Items: items})
	}
}

// SetSignal handles POST (on) and DELETE (off) /v1/posts/{id}/{signal}.
func SetSignal(f Forum, on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		sig := chi.URLParam(r, "signal")
		if !forumv1.ValidSignal(sig) {
			api.NotFound(w, "NOT_FOUND", "Unknown route", rid)
			return
		}
		if err := f.SetSignal(r.Context(), forumv1.SetSignalRequest{PostID: id, Signal: sig, On: on}); err != nil {
			writeError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}

// Saved handles GET /v1/me/saved.
func Saved(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		posts, err := f.Saved(r.Context())
		if err != nil {
			writeError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, forumv1.ListThreadsResponse{Threads: posts})
	}
}
