package handlers

import (
	"errors"
	"net/http"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/services/web/internal/interaction"
	"github.com/example/forum-platform/services/web/internal/remote"
	"github.com/example/forum-platform/services/web/internal/thread"
)

// writeRemoteError maps engine and forum failures onto the API envelope.
func writeRemoteError(w http.ResponseWriter, requestID string, err error) {
	var pe *interaction.PartialError
	switch {
	case errors.Is(err, interaction.ErrUnauthenticated):
		api.Unauthorized(w, "AUTH_MISSING", "Sign in to do that", requestID)
		return
	case errors.Is(err, interaction.ErrInFlight):
		api.Conflict(w, "IN_FLIGHT", "Previous action is still in progress", requestID, nil)
		return
	case errors.As(err, &pe):
		api.BadGateway(w, "PARTIAL_FAILURE", "Action could not be completed", requestID, map[string]any{
			"rolled_back": pe.RolledBack,
			"failed":      pe.Failed.String(),
		})
		return
	case errors.Is(err, thread.ErrMalformed):
		api.BadGateway(w, "MALFORMED_RESPONSE", "Forum returned malformed data", requestID, nil)
		return
	}

	var re *remote.Error
	if !errors.As(err, &re) {
		api.Internal(w, requestID)
		return
	}
	code := re.Code
	msg := re.Message
	if msg == "" {
		msg = http.StatusText(statusFor(re.Kind))
	}
	switch re.Kind {
	case remote.KindNotFound:
		api.NotFound(w, orDefault(code, "NOT_FOUND"), msg, requestID)
	case remote.KindUnauthorized:
		api.Unauthorized(w, orDefault(code, "UNAUTHORIZED"), msg, requestID)
	case remote.KindForbidden:
		api.Forbidden(w, orDefault(code, "FORBIDDEN"), msg, requestID)
	case remote.KindInvalid:
		api.BadRequest(w, orDefault(code, "INVALID_ARGUMENT"), msg, requestID, nil)
	case remote.KindConflict:
		api.Conflict(w, orDefault(code, "CONFLICT"), msg, requestID, nil)
	case remote.KindTransient:
		api.Unavailable(w, "FORUM_UNAVAILABLE", "Forum is temporarily unavailable", requestID)
	default:
		api.BadGateway(w, "UPSTREAM_ERROR", "Unexpected forum response", requestID, nil)
	}
}

func statusFor(k remote.Kind) int {
	switch k {
	case remote.KindNotFound:
		return http.StatusNotFound
	case remote.KindUnauthorized:
		return http.StatusUnauthorized
	case remote.KindForbidden:
		return http.StatusForbidden
	case remote.KindInvalid:
		return http.StatusBadRequest
	case remote.KindConflict:
		return http.StatusConflict
	case remote.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
