package handlers

import (
	"context"
	"net/http"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/services/web/internal/interaction"
)

type Interactions interface {
	FetchState(ctx context.Context, subject int64, actor string) (interaction.State, error)
	ToggleLike(ctx context.Context, subject int64, actor string) (interaction.State, error)
	ToggleDislike(ctx context.Context, subject int64, actor string) (interaction.State, error)
	ToggleSave(ctx context.Context, subject int64, actor string) (interaction.State, error)
}

type stateResp struct {
	PostID int64             `json:"post_id"`
	State  interaction.State `json:"state"`
}

func GetInteraction(e Interactions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid, "id")
		if !ok {
			return
		}
		ctx, actor := forward(r)
		st, err := e.FetchState(ctx, id, actor)
		if err != nil {
			writeRemoteError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, stateResp{PostID: id, State: st})
	}
}

// Toggle flips one signal for the caller. Anonymous callers reach the engine
// and are refused there.
func Toggle(e Interactions, intent interaction.Intent) http.HandlerFunc {
	toggle := e.ToggleLike
	switch intent {
	case interaction.IntentDislike:
		toggle = e.ToggleDislike
	case interaction.IntentSave:
		toggle = e.ToggleSave
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid, "id")
		if !ok {
			return
		}
		ctx, actor := forward(r)
		st, err := toggle(ctx, id, actor)
		if err != nil {
			writeRemoteError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, stateResp{PostID: id, State: st})
	}
}
