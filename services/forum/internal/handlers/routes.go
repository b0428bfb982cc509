package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/example/forum-platform/internal/platform/auth"
)

// Mount registers the forum API. Every route accepts an optional bearer
// token; operations that need an identity answer 401 without one.
func Mount(r chi.Router, f Forum, verifier auth.JWTVerifier) {
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(verifier))

		r.Post("/v1/users", Register(f))
		r.Post("/v1/users/login", Login(f))

		r.Get("/v1/threads", ListThreads(f))
		r.Post("/v1/threads", CreateThread(f))
		r.Get("/v1/threads/{id}", GetThread(f))
		r.Delete("/v1/threads/{id}", DeleteThread(f))
		r.Get("/v1/facets", ListFacets(f))

		r.Put("/v1/posts/{id}", UpdatePost(f))
		r.Get("/v1/posts/{id}/authorize", AuthorizePost(f))
		r.Post("/v1/posts/{id}/comments", CreateComment(f))
		r.Get("/v1/posts/{id}/interaction", GetInteraction(f))
		r.Post("/v1/posts/{id}/{signal}", SetSignal(f, true))
		r.Delete("/v1/posts/{id}/{signal}", SetSignal(f, false))
		r.Post("/v1/interactions:batch", BatchInteractions(f))

		r.Get("/v1/me/saved", Saved(f))
	})
}
