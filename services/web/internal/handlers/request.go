package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/services/web/internal/remote"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON reads up to maxRequestBodyBytes from r.Body, decodes JSON into dst
// and validates it. On failure it writes a 400 response and returns false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, rid string, dst *T) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(dst); err != nil {
		api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		details := map[string]any{}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		api.BadRequest(w, "VALIDATION_FAILED", "Invalid request", rid, details)
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter. On failure it writes a 400.
func pathID(w http.ResponseWriter, r *http.Request, rid, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, name)), 10, 64)
	if err != nil || id <= 0 {
		api.BadRequest(w, "INVALID_ID", name+" must be a positive integer", rid, nil)
		return 0, false
	}
	return id, true
}

// forward returns a context carrying the caller's token for the forum and
// the caller's user id, empty when anonymous.
func forward(r *http.Request) (context.Context, string) {
	ctx := r.Context()
	uid, _ := auth.UserIDFromContext(ctx)
	if tok, ok := auth.TokenFromContext(ctx); ok {
		ctx = remote.WithToken(ctx, tok)
	}
	return ctx, uid
}
