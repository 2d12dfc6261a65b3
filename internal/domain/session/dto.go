package session

import (
	"github.com/vendora/vendora-search/internal/domain/availability"
	"github.com/vendora/vendora-search/internal/domain/filters"
	"github.com/vendora/vendora-search/internal/domain/location"
	"github.com/vendora/vendora-search/internal/domain/search"
	"github.com/vendora/vendora-search/internal/pkg/geocode"
)

// CreateRequest opens a new search session. ClientID is a stable identifier
// the caller carries across sessions; it keys the persisted location
// preference.
type CreateRequest struct {
	ClientID string `json:"client_id" validate:"omitempty,max=64"`
	Category string `json:"category" validate:"omitempty,max=100"`
	City     string `json:"city" validate:"omitempty,max=100"`
}

// LocationTextRequest carries a typed location query.
type LocationTextRequest struct {
	Text string `json:"text" validate:"required,max=200"`
}

// LocationPlaceRequest carries an autocomplete selection as returned by the
// geocoder.
type LocationPlaceRequest struct {
	Place geocode.Result `json:"place" validate:"required"`
}

// CoordinatesRequest carries device-granted or map-derived coordinates.
type CoordinatesRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// RadiusRequest changes the search radius. Arbitrary values are snapped onto
// the allowed set server-side.
type RadiusRequest struct {
	RadiusKm float64 `json:"radius_km" validate:"required,gt=0"`
}

// DateRequest selects the availability date.
type DateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// TimeRequest sets one edge of the availability time interval.
type TimeRequest struct {
	Time string `json:"time" validate:"required,hhmm"`
}

// SessionResponse is the full session view.
type SessionResponse struct {
	ID                string              `json:"id"`
	Category          string              `json:"category,omitempty"`
	City              string              `json:"city,omitempty"`
	Location          *location.State     `json:"location,omitempty"`
	Availability      availability.Window `json:"availability"`
	AvailabilityState availability.State  `json:"availability_state"`
	Filters           filters.Criteria    `json:"filters"`
	ActiveFilters     int                 `json:"active_filters"`
	Count             search.Update       `json:"count"`
	RadiusOptions     []float64           `json:"radius_options"`
}

// ApplyResponse carries the composed query for the results view.
type ApplyResponse struct {
	Query search.Query `json:"query"`
}
