package auth

import (
	"net/http"
	"strings"

	"github.com/example/forum-platform/internal/platform/api"
)

// IsAdmin reports whether RequireUser/OptionalUser injected role=admin.
func IsAdmin(r *http.Request) bool {
	role, _ := RoleFromContext(r.Context())
	return strings.ToLower(strings.TrimSpace(role)) == "admin"
}

// RequireAdmin allows request only if RequireUser already injected role=admin into context.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r) {
			api.Forbidden(w, "FORBIDDEN", "admin role required", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
