package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/services/web/internal/remote"
)

type Accounts interface {
	Register(ctx context.Context, username, password string) (remote.Session, error)
	Login(ctx context.Context, username, password string) (remote.Session, error)
}

type registerReq struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func Register(a Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req registerReq
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		sess, err := a.Register(r.Context(), strings.TrimSpace(req.Username), req.Password)
		if err != nil {
			writeRemoteError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, sess)
	}
}

func Login(a Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req loginReq
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		sess, err := a.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
		if err != nil {
			writeRemoteError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, sess)
	}
}
