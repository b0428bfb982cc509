package handlers

import (
	"net/http"
	"strconv"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/httpserver"
)

// ListThreads handles GET /v1/threads?query=&category=&tag=&sort=&limit=&offset=
func ListThreads(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		q := r.URL.Query()
		req := forumv1.ListThreadsRequest{
			Query:    q.Get("query"),
			Category: q.Get("category"),
			Tag:      q.Get("tag"),
			Sort:     q.Get("sort"),
		}
		for name, dst := range map[string]*int{"limit": &req.Limit, "offset": &req.Offset} {
			if v := q.Get(name); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil || n < 0 {
					api.BadRequest(w, "INVALID_PAGE", name+" must be a non-negative integer", rid, nil)
					return
				}
				*dst = n
			}
		}
		threads, err := f.Threads(r.Context(), req)
		if err != nil {
			writeError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, forumv1.ListThreadsResponse{Threads: threads})
	}
}

// GetThread handles GET /v1/threads/{id}. Comments are every descendant,
// flat, in creation order.
func GetThread(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		d, err := f.Thread(r.Context(), id)
		if err != nil {
			writeError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, d)
	}
}

// CreateThread handles POST /v1/threads.
func CreateThread(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req forumv1.CreateThreadRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		p, err := f.CreateThread(r.Context(), req)
		if err != nil {
			writeError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, p)
	}
}

// DeleteThread handles DELETE /v1/threads/{id}.
func DeleteThread(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		if err := f.DeleteThread(r.Context(), id); err != nil {
			writeError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}

// UpdatePost handles PUT /v1/posts/{id}. Omitted fields are left unchanged.
func UpdatePost(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		var req forumv1.UpdatePostRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		req.ID = id
		p, err := f.UpdatePost(r.Context(), req)
		if err != nil {
			writeError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, p)
	}
}

// AuthorizePost handles GET /v1/posts/{id}/authorize.
func AuthorizePost(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		out, err := f.Authorize(r.Context(), id)
		if err != nil {
			writeError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}

// ListFacets handles GET /v1/facets.
func ListFacets(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := f.Facets(r.Context())
		if err != nil {
			writeError(w, httpserver.RequestIDFromContext(r.Context()), err)
			return
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}

// CreateComment handles POST /v1/posts/{id}/comments.
func CreateComment(f Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		var req forumv1.CreateCommentRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		req.ParentID = id
		p, err := f.CreateComment(r.Context(), req)
		if err != nil {
			writeError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, p)
	}
}
