package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/services/forum/internal/app"
	"github.com/example/forum-platform/services/forum/internal/store"
)

var testVerifier = auth.JWTVerifier{Secret: []byte("test-secret")}

func newRouter() chi.Router {
	a := app.New(app.Options{
		Store:  store.NewInMemory(),
		Tokens: auth.Issuer{Secret: testVerifier.Secret, TTL: time.Hour},
	})
	r := chi.NewRouter()
	Mount(r, a, testVerifier)
	return r
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &env)
	return env.Error.Code
}

func register(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	rr := do(t, r, http.MethodPost, "/v1/users", "", map[string]string{"username": username, "password": "password123"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", username, rr.Code, rr.Body.String())
	}
	return decode[forumv1.Session](t, rr).AccessToken
}

func TestRegisterLoginFlow(t *testing.T) {
	r := newRouter()
	register(t, r, "alice")

	rr := do(t, r, http.MethodPost, "/v1/users", "", map[string]string{"username": "alice", "password": "password123"})
	if rr.Code != http.StatusConflict || errorCode(t, rr) != "USERNAME_TAKEN" {
		t.Fatalf("expected 409 USERNAME_TAKEN, got %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, r, http.MethodPost, "/v1/users/login", "", map[string]string{"username": "alice", "password": "nope-nope"})
	if rr.Code != http.StatusUnauthorized || errorCode(t, rr) != "INVALID_CREDENTIALS" {
		t.Fatalf("expected 401 INVALID_CREDENTIALS, got %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, r, http.MethodPost, "/v1/users/login", "", map[string]string{"username": "alice", "password": "password123"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	if sess := decode[forumv1.Session](t, rr); sess.AccessToken == "" || sess.Username != "alice" {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestRegisterValidation(t *testing.T) {
	r := newRouter()
	rr := do(t, r, http.MethodPost, "/v1/users", "", map[string]string{"username": "al", "password": "password123"})
	if rr.Code != http.StatusBadRequest || errorCode(t, rr) != "VALIDATION_FAILED" {
		t.Fatalf("expected 400 VALIDATION_FAILED, got %d %s", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewBufferString("{"))
	out := httptest.NewRecorder()
	r.ServeHTTP(out, req)
	if out.Code != http.StatusBadRequest || errorCode(t, out) != "INVALID_JSON" {
		t.Fatalf("expected 400 INVALID_JSON, got %d", out.Code)
	}
}

func TestThreadAndCommentFlow(t *testing.T) {
	r := newRouter()
	alice := register(t, r, "alice")
	bob := register(t, r, "bob")

	rr := do(t, r, http.MethodPost, "/v1/threads", "", map[string]string{"title": "t", "content": "c"})
	if rr.Code != http.StatusUnauthorized || errorCode(t, rr) != "AUTH_MISSING" {
		t.Fatalf("expected 401 AUTH_MISSING, got %d %s", rr.Code, rr.Body.String())
	}
	rr = do(t, r, http.MethodPost, "/v1/threads", "garbage", map[string]string{"title": "t", "content": "c"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token must be rejected, got %d", rr.Code)
	}

	rr = do(t, r, http.MethodPost, "/v1/threads", alice, map[string]string{"title": "Welcome", "content": "hi"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create thread: %d %s", rr.Code, rr.Body.String())
	}
	th := decode[forumv1.Post](t, rr)
	tid := strconv.FormatInt(th.ID, 10)

	rr = do(t, r, http.MethodPost, "/v1/posts/"+tid+"/comments", bob, map[string]string{"content": "first"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("comment: %d %s", rr.Code, rr.Body.String())
	}
	c1 := decode[forumv1.Post](t, rr)
	if c1.Depth != 1 || c1.ParentID == nil || *c1.ParentID != th.ID {
		t.Fatalf("unexpected comment %+v", c1)
	}
	rr = do(t, r, http.MethodPost, "/v1/posts/"+strconv.FormatInt(c1.ID, 10)+"/comments", alice, map[string]string{"content": "second"})
	if rr.Code != http.StatusCreated || decode[forumv1.Post](t, rr).Depth != 2 {
		t.Fatalf("reply: %d %s", rr.Code, rr.Body.String())
	}
	rr = do(t, r, http.MethodPost, "/v1/posts/999/comments", alice, map[string]string{"content": "x"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing parent, got %d", rr.Code)
	}

	rr = do(t, r, http.MethodGet, "/v1/threads/"+tid, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get thread: %d", rr.Code)
	}
	d := decode[forumv1.ThreadDetail](t, rr)
	if d.Thread.ID != th.ID || len(d.Comments) != 2 || d.Thread.CommentsCount != 2 {
		t.Fatalf("unexpected detail %+v", d)
	}

	rr = do(t, r, http.MethodGet, "/v1/threads?sort=active&limit=5", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: %d", rr.Code)
	}
	if list := decode[forumv1.ListThreadsResponse](t, rr); len(list.Threads) != 1 {
		t.Fatalf("expected one thread, got %+v", list)
	}
	rr = do(t, r, http.MethodGet, "/v1/threads?limit=-1", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative limit, got %d", rr.Code)
	}

	rr = do(t, r, http.MethodDelete, "/v1/threads/"+tid, bob, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-author, got %d", rr.Code)
	}
	rr = do(t, r, http.MethodDelete, "/v1/threads/"+tid, alice, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", rr.Code, rr.Body.String())
	}
	rr = do(t, r, http.MethodGet, "/v1/threads/"+tid, "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestSignalsAndSaved(t *testing.T) {
	r := newRouter()
	alice := register(t, r, "alice")
	rr := do(t, r, http.MethodPost, "/v1/threads", alice, map[string]string{"title": "t", "content": "c"})
	th := decode[forumv1.Post](t, rr)
	base := "/v1/posts/" + strconv.FormatInt(th.ID, 10)

	for _, path := range []string{base + "/like", base + "/like", base + "/save"} {
		if rr := do(t, r, http.MethodPost, path, alice, nil); rr.Code != http.StatusNoContent {
			t.Fatalf("POST %s: %d %s", path, rr.Code, rr.Body.String())
		}
	}
	rr = do(t, r, http.MethodGet, base+"/interaction", alice, nil)
	in := decode[forumv1.Interaction](t, rr)
	if !in.Liked || !in.Saved || in.LikesCount != 1 {
		t.Fatalf("unexpected interaction %+v", in)
	}

	if rr := do(t, r, http.MethodDelete, base+"/like", alice, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("unlike: %d", rr.Code)
	}
	if rr := do(t, r, http.MethodPost, base+"/love", alice, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown signal, got %d", rr.Code)
	}
	if rr := do(t, r, http.MethodPost, base+"/like", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	rr = do(t, r, http.MethodPost, "/v1/interactions:batch", "", map[string][]int64{"ids": {th.ID, 404}})
	if rr.Code != http.StatusOK {
		t.Fatalf("batch: %d %s", rr.Code, rr.Body.String())
	}
	batch := decode[forumv1.BatchInteractionsResponse](t, rr)
	if len(batch.Items) != 1 || batch.Items[th.ID].LikesCount != 0 || batch.Items[th.ID].Saved {
		t.Fatalf("unexpected batch %+v", batch)
	}

	rr = do(t, r, http.MethodGet, "/v1/me/saved", alice, nil)
	saved := decode[forumv1.ListThreadsResponse](t, rr)
	if len(saved.Threads) != 1 || saved.Threads[0].ID != th.ID {
		t.Fatalf("unexpected saved %+v", saved)
	}
	if rr := do(t, r, http.MethodGet, "/v1/me/saved", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

type failingForum struct {
	Forum
}

func (failingForum) Thread(context.Context, int64) (forumv1.ThreadDetail, error) {
	return forumv1.ThreadDetail{}, context.DeadlineExceeded
}

func TestUnexpectedErrorIsInternal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/threads/1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()

	GetThread(failingForum{})(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestPathIDRejectsGarbage(t *testing.T) {
	r := newRouter()
	if rr := do(t, r, http.MethodGet, "/v1/threads/abc", "", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUpdateAndAuthorizePost(t *testing.T) {
	r := newRouter()
	alice := register(t, r, "alice")
	bob := register(t, r, "bob")
	rr := do(t, r, http.MethodPost, "/v1/threads", alice, map[string]string{"title": "t", "content": "c", "category": "Help", "tag": "go"})
	th := decode[forumv1.Post](t, rr)
	base := "/v1/posts/" + strconv.FormatInt(th.ID, 10)

	rr = do(t, r, http.MethodGet, base+"/authorize", bob, nil)
	if rr.Code != http.StatusOK || decode[forumv1.Authorization](t, rr).Authorized {
		t.Fatalf("stranger must not be authorized: %d %s", rr.Code, rr.Body.String())
	}
	rr = do(t, r, http.MethodGet, base+"/authorize", alice, nil)
	if rr.Code != http.StatusOK || !decode[forumv1.Authorization](t, rr).Authorized {
		t.Fatalf("author must be authorized: %d %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, r, http.MethodGet, "/v1/posts/404/authorize", alice, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	if rr := do(t, r, http.MethodPut, base, bob, map[string]string{"content": "hijack"}); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-author, got %d", rr.Code)
	}
	if rr := do(t, r, http.MethodPut, base, "", map[string]string{"content": "x"}); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	if rr := do(t, r, http.MethodPut, "/v1/posts/404", alice, map[string]string{"content": "x"}); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing post, got %d", rr.Code)
	}
	rr = do(t, r, http.MethodPut, base, alice, map[string]string{"title": "renamed"})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rr.Code, rr.Body.String())
	}
	if p := decode[forumv1.Post](t, rr); p.Title != "renamed" || p.Content != "c" || p.Category != "help" {
		t.Fatalf("unexpected post %+v", p)
	}

	rr = do(t, r, http.MethodPost, base+"/comments", bob, map[string]string{"content": "reply"})
	cid := strconv.FormatInt(decode[forumv1.Post](t, rr).ID, 10)
	rr = do(t, r, http.MethodPut, "/v1/posts/"+cid, bob, map[string]string{"title": "nope"})
	if rr.Code != http.StatusBadRequest || errorCode(t, rr) != "VALIDATION_FAILED" {
		t.Fatalf("title on a comment: %d %s", rr.Code, rr.Body.String())
	}
}

func TestListFiltersAndFacets(t *testing.T) {
	r := newRouter()
	alice := register(t, r, "alice")
	_ = do(t, r, http.MethodPost, "/v1/threads", alice, map[string]string{"title": "a", "content": "c", "category": "help", "tag": "go"})
	_ = do(t, r, http.MethodPost, "/v1/threads", alice, map[string]string{"title": "b", "content": "c", "category": "news"})

	rr := do(t, r, http.MethodGet, "/v1/threads?category=help&tag=go", "", nil)
	if list := decode[forumv1.ListThreadsResponse](t, rr); len(list.Threads) != 1 || list.Threads[0].Title != "a" {
		t.Fatalf("unexpected filtered list %+v", list)
	}
	rr = do(t, r, http.MethodGet, "/v1/facets", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("facets: %d", rr.Code)
	}
	f := decode[forumv1.Facets](t, rr)
	if len(f.Categories) != 2 || f.Categories[0] != "help" || len(f.Tags) != 1 {
		t.Fatalf("unexpected facets %+v", f)
	}
}
