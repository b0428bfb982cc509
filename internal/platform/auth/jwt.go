package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

type ctxKeyUserID struct{}
type ctxKeyRole struct{}
type ctxKeyUsername struct{}
type ctxKeyToken struct{}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUserID{}).(string)
	return v, ok
}

// WithUserID injects user_id into context. Useful for testing.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyRole{}).(string)
	return v, ok
}

// WithRole injects a role into context. Useful for testing.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole{}, role)
}

func UsernameFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUsername{}).(string)
	return v, ok
}

// WithUsername injects the display name into context. Useful for testing.
func WithUsername(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxKeyUsername{}, name)
}

// TokenFromContext returns the raw bearer token the request was authenticated with,
// so it can be forwarded to upstream services.
func TokenFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyToken{}).(string)
	return v, ok
}

type Claims struct {
	jwt.RegisteredClaims
	Role     string `json:"role,omitempty"`
	Username string `json:"username,omitempty"`
}

type JWTVerifier struct {
	Secret []byte
}

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer ..." value.
func BearerToken(header string) (string, bool) {
	authz := strings.TrimSpace(header)
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

// Authenticate verifies a raw token and returns a context carrying its identity.
func Authenticate(ctx context.Context, verifier JWTVerifier, token string) (context.Context, error) {
	claims, err := verifier.Parse(token)
	if err != nil {
		return ctx, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return ctx, errors.New("token has no subject")
	}
	ctx = context.WithValue(ctx, ctxKeyUserID{}, claims.Subject)
	ctx = context.WithValue(ctx, ctxKeyToken{}, token)
	if strings.TrimSpace(claims.Role) != "" {
		ctx = context.WithValue(ctx, ctxKeyRole{}, claims.Role)
	}
	if strings.TrimSpace(claims.Username) != "" {
		ctx = context.WithValue(ctx, ctxKeyUsername{}, claims.Username)
	}
	return ctx, nil
}

// RequireUser middleware validates Bearer token and injects user_id into context.
func RequireUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			ctx, err := Authenticate(r.Context(), verifier, tok)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalUser injects the identity when a valid Bearer token is present and
// otherwise lets the request through anonymously. A present but invalid token
// is still rejected.
func OptionalUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
				next.ServeHTTP(w, r)
				return
			}
			tok, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			ctx, err := Authenticate(r.Context(), verifier, tok)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
