package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/internal/platform/signing"
	"github.com/example/forum-platform/services/web/internal/interaction"
	"github.com/example/forum-platform/services/web/internal/refresh"
	"github.com/example/forum-platform/services/web/internal/remote"
)

// Deps are the collaborators the web routes need.
type Deps struct {
	Verifier      auth.JWTVerifier
	Forum         remote.Client
	Interactions  Interactions
	Pages         PageAssembler
	Saved         SavedReader
	Bus           *refresh.Bus
	Notifier      interaction.Notifier
	Signer        *signing.Signer
	PublicBaseURL string
	RateLimit     func(http.Handler) http.Handler
	Metrics       http.Handler
	Log           *zap.Logger
}

// Mount registers every web route on r. SetupRouter must have run first.
func Mount(r chi.Router, d Deps) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	// Browsers cannot set headers on websockets; the ticket authenticates.
	r.Get("/v1/refresh/ws", RefreshStream(d.Bus, d.Signer, d.Log))

	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(d.Verifier))
		if d.RateLimit != nil {
			r.Use(d.RateLimit)
		}

		r.Post("/v1/auth/register", Register(d.Forum))
		r.Post("/v1/auth/login", Login(d.Forum))

		r.Get("/v1/threads", ListThreads(d.Forum))
		r.Get("/v1/threads/{id}", GetThread(d.Pages))
		r.Get("/v1/facets", ListFacets(d.Forum))
		r.Get("/v1/posts/{id}/authorize", AuthorizePost(d.Forum))
		r.Get("/v1/posts/{id}/interaction", GetInteraction(d.Interactions))
		r.Post("/v1/posts/{id}/like", Toggle(d.Interactions, interaction.IntentLike))
		r.Post("/v1/posts/{id}/dislike", Toggle(d.Interactions, interaction.IntentDislike))
		r.Post("/v1/posts/{id}/save", Toggle(d.Interactions, interaction.IntentSave))

		r.Group(func(r chi.Router) {
			r.Use(requireActor)
			r.Post("/v1/threads", CreateThread(d.Forum, d.Notifier))
			r.Delete("/v1/threads/{id}", DeleteThread(d.Forum, d.Notifier))
			r.Put("/v1/posts/{id}", UpdatePost(d.Forum, d.Notifier))
			r.Post("/v1/posts/{id}/comments", CreateComment(d.Forum, d.Notifier))
			r.Get("/v1/me/saved", Saved(d.Saved))
			r.Get("/v1/refresh/ticket", RefreshTicket(d.Signer, d.PublicBaseURL))
			r.With(auth.RequireAdmin).Post("/v1/admin/refresh", AdminRefresh(d.Notifier))
		})
	})
}

// requireActor refuses anonymous requests that OptionalUser let through.
func requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := auth.UserIDFromContext(r.Context()); !ok || uid == "" {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
