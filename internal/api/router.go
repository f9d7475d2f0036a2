package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notekeeper/internal/keeper"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *keeper.Services, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)
		r.Get("/{id}", h.GetNote)
		r.Put("/{id}", h.UpdateNote)
		r.Delete("/{id}", h.TrashNote)
		r.Post("/{id}/lock", h.LockNote)
		r.Delete("/{id}/lock", h.UnlockNote)
		r.Post("/{id}/tags", h.ApplyTag)
		r.Post("/{id}/share", h.ShareNote)
	})

	r.Get("/search", h.Search)

	r.Route("/trash", func(r chi.Router) {
		r.Get("/", h.ListTrash)
		r.Delete("/", h.EmptyTrash)
		r.Get("/{id}", h.GetTrashed)
		r.Post("/{id}/restore", h.RestoreNote)
		r.Delete("/{id}", h.PurgeNote)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", h.ListTags)
		r.Post("/", h.CreateTag)
		r.Put("/{id}", h.RenameTag)
		r.Delete("/{id}", h.DeleteTag)
		r.Get("/{id}/notes", h.TaggedNotes)
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.GetSettings)
		r.Patch("/", h.UpdateSettings)
		r.Put("/main-password", h.SetMainPassword)
		r.Delete("/main-password", h.ClearMainPassword)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
