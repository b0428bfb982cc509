package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/services/web/internal/interaction"
	"github.com/example/forum-platform/services/web/internal/thread"
)

func ptr(v int64) *int64 { return &v }

func fakeForum(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	r := chi.NewRouter()
	r.Get("/v1/threads/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(forumv1.ThreadDetail{
			Thread: forumv1.Post{ID: 1, Title: "Welcome", Author: "alice", Content: "hi all"},
			Comments: []forumv1.Post{
				{ID: 2, ParentID: ptr(1), Author: "bob", Content: "first", Depth: 1},
				{ID: 3, ParentID: ptr(2), Author: "carol", Content: "second", Depth: 2},
				{ID: 4, ParentID: ptr(3), Author: "dave", Content: "third\nmore", Depth: 3},
			},
		})
	})
	r.Get("/v1/threads", func(w http.ResponseWriter, r *http.Request) {
		call := "threads sort=" + r.URL.Query().Get("sort")
		if tag := r.URL.Query().Get("tag"); tag != "" {
			call += " tag=" + tag
		}
		calls = append(calls, call)
		_ = json.NewEncoder(w).Encode(forumv1.ListThreadsResponse{Threads: []forumv1.Post{{ID: 1, Title: "Welcome", Author: "alice"}}})
	})
	r.Get("/v1/posts/{id}/interaction", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(forumv1.Interaction{Disliked: true, DislikesCount: 1})
	})
	r.Post("/v1/posts/{id}/{signal}", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "POST "+chi.URLParam(r, "signal")+" "+r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	r.Delete("/v1/posts/{id}/{signal}", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "DELETE "+chi.URLParam(r, "signal"))
		w.WriteHeader(http.StatusNoContent)
	})
	r.Put("/v1/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		keys := make([]string, 0, len(body))
		for k := range body {
			if k != "id" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		calls = append(calls, "PUT "+chi.URLParam(r, "id")+" "+strings.Join(keys, ","))
		_ = json.NewEncoder(w).Encode(forumv1.Post{ID: 9})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestShowRendersTree(t *testing.T) {
	srv, _ := fakeForum(t)
	out, err := execute(t, "--server", srv.URL, "show", "1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{
		"#1 Welcome",
		"#2 bob (+0 -0): first",
		"  #3 carol",
		"    #4 dave (+0 -0) [leaf]: third",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "more") {
		t.Fatalf("only the first line of content should be printed:\n%s", out)
	}
}

func TestThreadsPassesSort(t *testing.T) {
	srv, calls := fakeForum(t)
	out, err := execute(t, "--server", srv.URL, "threads", "--sort", "top")
	if err != nil {
		t.Fatalf("threads: %v", err)
	}
	if !strings.Contains(out, "Welcome") {
		t.Fatalf("unexpected output %q", out)
	}
	if (*calls)[0] != "threads sort=top" {
		t.Fatalf("unexpected call %v", *calls)
	}
}

func TestLikeWhileDisliked(t *testing.T) {
	srv, calls := fakeForum(t)
	tok, _, err := auth.Issuer{Secret: []byte("k"), TTL: time.Hour}.NewAccessToken("u1", "alice", "", time.Now())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	out, err := execute(t, "--server", srv.URL, "--token", tok, "like", "9")
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !strings.Contains(out, "post 9: liked  +1 -0") {
		t.Fatalf("unexpected output %q", out)
	}
	want := []string{"POST like Bearer " + tok, "DELETE dislike"}
	if len(*calls) != 2 || (*calls)[0] != want[0] || (*calls)[1] != want[1] {
		t.Fatalf("unexpected calls %v", *calls)
	}
}

func TestLikeRequiresToken(t *testing.T) {
	srv, calls := fakeForum(t)
	t.Setenv("FORUM_TOKEN", "")
	_, err := execute(t, "--server", srv.URL, "like", "9")
	if err == nil || !strings.Contains(err.Error(), "login") {
		t.Fatalf("expected login hint, got %v", err)
	}
	if len(*calls) != 0 {
		t.Fatalf("expected no calls, got %v", *calls)
	}
}

func TestParseID(t *testing.T) {
	if _, err := parseID("0"); err == nil {
		t.Fatal("expected error for 0")
	}
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d %v", id, err)
	}
}

func TestFormatState(t *testing.T) {
	got := formatState(3, interaction.State{Reaction: interaction.Disliked, Saved: true, DislikesCount: 2})
	if got != "post 3: disliked, saved  +0 -2" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestRenderTreeOrphanIsRoot(t *testing.T) {
	var buf bytes.Buffer
	renderTree(&buf, thread.BuildTree([]thread.Record{
		{ID: 5, ParentID: ptr(404), Author: "eve", Content: "lost", Depth: 4},
	}))
	if !strings.HasPrefix(buf.String(), "#5 eve (+0 -0) [leaf]: lost") {
		t.Fatalf("unexpected %q", buf.String())
	}
}

func TestThreadsPassesTag(t *testing.T) {
	srv, calls := fakeForum(t)
	if _, err := execute(t, "--server", srv.URL, "threads", "--tag", "go"); err != nil {
		t.Fatalf("threads: %v", err)
	}
	if (*calls)[0] != "threads sort=new tag=go" {
		t.Fatalf("unexpected call %v", *calls)
	}
}

func TestEditSendsOnlyChangedFields(t *testing.T) {
	srv, calls := fakeForum(t)
	tok, _, err := auth.Issuer{Secret: []byte("k"), TTL: time.Hour}.NewAccessToken("u1", "alice", "", time.Now())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	out, err := execute(t, "--server", srv.URL, "--token", tok, "edit", "9", "--content", "fixed typo", "--tag", "")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !strings.Contains(out, "updated post 9") {
		t.Fatalf("unexpected output %q", out)
	}
	if len(*calls) != 1 || (*calls)[0] != "PUT 9 content,tag" {
		t.Fatalf("unexpected calls %v", *calls)
	}

	if _, err := execute(t, "--server", srv.URL, "--token", tok, "edit", "9"); err == nil {
		t.Fatal("edit without changes must fail")
	}
}
