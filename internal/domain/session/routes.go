package session

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns the session router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)

	// Location resolution
	r.Put("/{id}/location/text", h.SetLocationText)
	r.Put("/{id}/location/place", h.SetLocationPlace)
	r.Put("/{id}/location/device", h.SetLocationDevice)
	r.Post("/{id}/location/denied", h.SetLocationDenied)
	r.Put("/{id}/location/recenter", h.Recenter)
	r.Put("/{id}/location/radius", h.SetRadius)

	// Availability window
	r.Put("/{id}/availability/date", h.SelectDate)
	r.Put("/{id}/availability/start", h.SetStartTime)
	r.Put("/{id}/availability/end", h.SetEndTime)
	r.Delete("/{id}/availability", h.ClearWindow)

	// Filters
	r.Patch("/{id}/filters", h.UpdateFilters)
	r.Delete("/{id}/filters", h.ClearFilters)

	// Query composition and preview count
	r.Post("/{id}/apply", h.Apply)
	r.Get("/{id}/count", h.Count)
	r.Get("/{id}/count/ws", h.CountStream)

	return r
}
