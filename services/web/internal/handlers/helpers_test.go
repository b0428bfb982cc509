package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/forum-platform/internal/platform/auth"
)

// ─── helpers ──────────────────────────────────────────────────────────────────

// setupReq builds a request with the id chi param set.
func setupReq(method, url, id string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	rctx := chi.NewRouteContext()
	if id != "" {
		rctx.URLParams.Add("id", id)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// asAuthUser injects user-1 and its token into the request context.
func asAuthUser(req *http.Request) *http.Request {
	ctx, err := auth.Authenticate(req.Context(), testVerifier, testToken)
	if err != nil {
		panic(err)
	}
	return req.WithContext(ctx)
}

var (
	testVerifier = auth.JWTVerifier{Secret: []byte("test-secret")}
	testToken    = mustToken()
)

func mustToken() string {
	tok, _, err := auth.Issuer{Secret: []byte("test-secret"), TTL: time.Hour}.NewAccessToken("user-1", "alice", "user", time.Now())
	if err != nil {
		panic(err)
	}
	return tok
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) (code string, details map[string]any) {
	t.Helper()
	var env struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env.Error.Code, env.Error.Details
}

type countingNotifier struct {
	mu sync.Mutex
	n  uint64
}

func (c *countingNotifier) Trigger() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

func (c *countingNotifier) count() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
