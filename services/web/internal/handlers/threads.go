package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/services/web/internal/interaction"
	"github.com/example/forum-platform/services/web/internal/remote"
	"github.com/example/forum-platform/services/web/internal/view"
)

type ThreadLister interface {
	Threads(ctx context.Context, q remote.ListQuery) ([]remote.Post, error)
}

type ThreadWriter interface {
	CreateThread(ctx context.Context, t remote.NewThread) (remote.Post, error)
	DeleteThread(ctx context.Context, id int64) error
}

type PageAssembler interface {
	ThreadPage(ctx context.Context, id int64, actor string) (view.ThreadPage, error)
}

func ListThreads(c ThreadLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		q := r.URL.Query()

		sort := strings.ToLower(strings.TrimSpace(q.Get("sort")))
		switch sort {
		case "", forumv1.SortNew, forumv1.SortTop, forumv1.SortActive:
		default:
			api.BadRequest(w, "INVALID_SORT", "sort must be new, top or active", rid, nil)
			return
		}
		limit := 20
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}
		offset := 0
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		ctx, _ := forward(r)
		threads, err := c.Threads(ctx, remote.ListQuery{
			Query:    strings.TrimSpace(q.Get("query")),
			Category: strings.TrimSpace(q.Get("category")),
			Tag:      strings.TrimSpace(q.Get("tag")),
			Sort:     sort,
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			writeRemoteError(w, rid, err)
			return
		}
		if threads == nil {
			threads = []remote.Post{}
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"threads": threads, "limit": limit, "offset": offset})
	}
}

type createThreadReq struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"required,max=20000"`
	Category string `json:"category" validate:"max=32"`
	Tag      string `json:"tag" validate:"max=32"`
}

func CreateThread(c ThreadWriter, n interaction.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req createThreadReq
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		ctx, _ := forward(r)
		post, err := c.CreateThread(ctx, remote.NewThread{
			Title:    strings.TrimSpace(req.Title),
			Content:  req.Content,
			Category: strings.TrimSpace(req.Category),
			Tag:      strings.TrimSpace(req.Tag),
		})
		if err != nil {
			writeRemoteError(w, rid, err)
			return
		}
		n.Trigger()
		api.WriteJSON(w, http.StatusCreated, post)
	}
}

func DeleteThread(c ThreadWriter, n interaction.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid, "id")
		if !ok {
			return
		}
		ctx, _ := forward(r)
		if err := c.DeleteThread(ctx, id); err != nil {
			writeRemoteError(w, rid, err)
			return
		}
		n.Trigger()
		api.NoContent(w)
	}
}

// GetThread answers the thread page: the thread, its comment forest with
// leaf-only markers and, when signed in, the caller's interaction state.
func GetThread(a PageAssembler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid, "id")
		if !ok {
			return
		}
		ctx, actor := forward(r)
		page, err := a.ThreadPage(ctx, id, actor)
		if err != nil {
			writeRemoteError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}
