package session

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendora/vendora-search/internal/domain/availability"
	"github.com/vendora/vendora-search/internal/domain/filters"
	"github.com/vendora/vendora-search/internal/middleware"
	"github.com/vendora/vendora-search/internal/pkg/response"
	"github.com/vendora/vendora-search/internal/pkg/validator"
)

// Handler handles search session HTTP requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new session handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /sessions
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sess := h.service.Create(r.Context(), middleware.GetClientIP(r), req)
	response.Created(w, sess.Snapshot())
}

// Get handles GET /sessions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// Delete handles DELETE /sessions/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.service.Delete(chi.URLParam(r, "id"))
	response.NoContent(w)
}

// SetLocationText handles PUT /sessions/{id}/location/text
func (h *Handler) SetLocationText(w http.ResponseWriter, r *http.Request) {
	var req LocationTextRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sess, err := h.service.SetLocationText(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// SetLocationPlace handles PUT /sessions/{id}/location/place
func (h *Handler) SetLocationPlace(w http.ResponseWriter, r *http.Request) {
	var req LocationPlaceRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	sess, err := h.service.SetLocationPlace(r.Context(), chi.URLParam(r, "id"), req.Place)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// SetLocationDevice handles PUT /sessions/{id}/location/device
func (h *Handler) SetLocationDevice(w http.ResponseWriter, r *http.Request) {
	var req CoordinatesRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sess, err := h.service.SetLocationDevice(r.Context(), chi.URLParam(r, "id"), req.Latitude, req.Longitude)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// SetLocationDenied handles POST /sessions/{id}/location/denied
func (h *Handler) SetLocationDenied(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.SetLocationDenied(r.Context(), chi.URLParam(r, "id"), middleware.GetClientIP(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// Recenter handles PUT /sessions/{id}/location/recenter
func (h *Handler) Recenter(w http.ResponseWriter, r *http.Request) {
	var req CoordinatesRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sess, err := h.service.RecenterMap(r.Context(), chi.URLParam(r, "id"), req.Latitude, req.Longitude)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// SetRadius handles PUT /sessions/{id}/location/radius
func (h *Handler) SetRadius(w http.ResponseWriter, r *http.Request) {
	var req RadiusRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sess, err := h.service.SetRadius(r.Context(), chi.URLParam(r, "id"), req.RadiusKm)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// SelectDate handles PUT /sessions/{id}/availability/date
func (h *Handler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req DateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sess, err := h.service.SelectDate(chi.URLParam(r, "id"), req.Date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// SetStartTime handles PUT /sessions/{id}/availability/start
func (h *Handler) SetStartTime(w http.ResponseWriter, r *http.Request) {
	h.setTime(w, r, h.service.SetStartTime)
}

// SetEndTime handles PUT /sessions/{id}/availability/end
func (h *Handler) SetEndTime(w http.ResponseWriter, r *http.Request) {
	h.setTime(w, r, h.service.SetEndTime)
}

func (h *Handler) setTime(w http.ResponseWriter, r *http.Request, set func(id, t string) (*Session, error)) {
	var req TimeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sess, err := set(chi.URLParam(r, "id"), req.Time)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// ClearWindow handles DELETE /sessions/{id}/availability
func (h *Handler) ClearWindow(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.ClearWindow(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// UpdateFilters handles PATCH /sessions/{id}/filters
func (h *Handler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	var req filters.Partial
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sess, err := h.service.UpdateFilters(chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// ClearFilters handles DELETE /sessions/{id}/filters
func (h *Handler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.ClearFilters(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.Snapshot())
}

// Apply handles POST /sessions/{id}/apply
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	query, err := h.service.Apply(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, ApplyResponse{Query: query})
}

// Count handles GET /sessions/{id}/count
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess.CountFrame())
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		response.NotFound(w, "Search session not found")
	case errors.Is(err, availability.ErrInvalidDate),
		errors.Is(err, availability.ErrInvalidTime):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrWindowInvalid):
		response.Error(w, http.StatusUnprocessableEntity, "WINDOW_INVALID", availability.ErrInvalidTimeRange.Error())
	default:
		response.InternalError(w)
	}
}
