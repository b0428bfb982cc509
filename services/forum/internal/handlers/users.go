package handlers

import (
	"net/http"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/httpserver"
)

// Register handles POST /v1/users.
func Register(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req forumv1.RegisterRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		sess, err := f.Register(r.Context(), req)
		if err != nil {
			writeError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, sess)
	}
}

// Login handles POST /v1/users/login.
func Login(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req forumv1.LoginRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		sess, err := f.Login(r.Context(), req)
		if err != nil {
			writeError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, sess)
	}
}
