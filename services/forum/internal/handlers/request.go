package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/forum-platform/internal/platform/api"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

// decodeJSON writes a 400 and returns false when the body is not JSON.
// Field rules are checked by the app.
func decodeJSON(w http.ResponseWriter, r *http.Request, rid string, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(dst); err != nil {
		api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, rid string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "id")), 10, 64)
	if err != nil || id <= 0 {
		api.BadRequest(w, "INVALID_ID", "id must be a positive integer", rid, nil)
		return 0, false
	}
	return id, true
}
