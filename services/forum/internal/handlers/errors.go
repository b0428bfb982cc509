package handlers

import (
	"errors"
	"net/http"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/services/forum/internal/app"
	"github.com/example/forum-platform/services/forum/internal/store"
)

func writeError(w http.ResponseWriter, requestID string, err error) {
	var verr *app.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make(map[string]any, len(verr.Fields))
		for k, v := range verr.Fields {
			details[k] = v
		}
		api.BadRequest(w, "VALIDATION_FAILED", "Invalid request", requestID, details)
	case errors.Is(err, app.ErrUnauthenticated):
		api.Unauthorized(w, "AUTH_MISSING", "Authentication required", requestID)
	case errors.Is(err, store.ErrInvalidCredentials):
		api.Unauthorized(w, "INVALID_CREDENTIALS", "Invalid username or password", requestID)
	case errors.Is(err, store.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "Post not found", requestID)
	case errors.Is(err, store.ErrForbidden):
		api.Forbidden(w, "FORBIDDEN", "Only the author or an admin may do that", requestID)
	case errors.Is(err, store.ErrUsernameTaken):
		api.Conflict(w, "USERNAME_TAKEN", "Username is already taken", requestID, nil)
	default:
		api.Internal(w, requestID)
	}
}
