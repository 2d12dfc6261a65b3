package catalog

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns the catalog router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/filters", h.Filters)

	return r
}
