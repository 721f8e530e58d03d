package documents

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns the document routes, mounted under /api/documents.
// Callers add authentication.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/search/", h.Search)
	r.Get("/type/{scan_type}", h.ListByType)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}
