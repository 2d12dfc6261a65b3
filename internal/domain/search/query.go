package search

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/vendora/vendora-search/internal/domain/availability"
	"github.com/vendora/vendora-search/internal/domain/filters"
	"github.com/vendora/vendora-search/internal/domain/location"
)

const kmPerMile = 1.609344

// CountRequest is the single projection of the live search state that both
// count endpoints derive their parameters from. The primary endpoint posts it
// as JSON; the legacy endpoint flattens it onto URL query parameters.
type CountRequest struct {
	Category string `json:"category,omitempty"`
	City     string `json:"city,omitempty"`

	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	RadiusMiles *float64 `json:"radiusMiles,omitempty"`

	EventTypes    []int `json:"eventTypes,omitempty"`
	Cultures      []int `json:"cultures,omitempty"`
	Subcategories []int `json:"subcategories,omitempty"`
	Features      []int `json:"features,omitempty"`

	ExperienceRange string `json:"experienceRange,omitempty"`
	ServiceLocation string `json:"serviceLocation,omitempty"`

	MinPrice *int   `json:"minPrice,omitempty"`
	MaxPrice *int   `json:"maxPrice,omitempty"`
	MinRating string `json:"minRating,omitempty"`

	InstantBookingOnly bool `json:"instantBookingOnly,omitempty"`
	HasExternalReviews bool `json:"hasExternalReviews,omitempty"`
	FreshListingsDays  int  `json:"freshListingsDays,omitempty"`
	MinReviewCount     int  `json:"minReviewCount,omitempty"`

	AvailabilityDate      string `json:"availabilityDate,omitempty"`
	AvailabilityDayOfWeek string `json:"availabilityDayOfWeek,omitempty"`
}

// Project builds the count request from the live (location, availability,
// filters) tuple. The filter fragment is the one source of truth for which
// dimensions are active; nothing here re-derives neutrality rules.
func Project(loc *location.State, win availability.Window, crit filters.Criteria, category, city string) CountRequest {
	req := CountRequest{
		Category: category,
		City:     city,
	}

	if loc != nil && loc.Coordinates != nil {
		lat := loc.Coordinates.Lat
		lng := loc.Coordinates.Lng
		miles := milesFromKm(loc.RadiusKm)
		req.Latitude = &lat
		req.Longitude = &lng
		req.RadiusMiles = &miles
	}

	for key, value := range crit.ToQueryFragment() {
		switch key {
		case "minPrice":
			v := value.(int)
			req.MinPrice = &v
		case "maxPrice":
			v := value.(int)
			req.MaxPrice = &v
		case "minRating":
			req.MinRating = value.(string)
		case "eventTypes":
			req.EventTypes = value.([]int)
		case "cultures":
			req.Cultures = value.([]int)
		case "subcategories":
			req.Subcategories = value.([]int)
		case "features":
			req.Features = value.([]int)
		case "experienceRange":
			req.ExperienceRange = value.(string)
		case "serviceLocation":
			req.ServiceLocation = value.(string)
		case "instantBookingOnly":
			req.InstantBookingOnly = true
		case "hasExternalReviews":
			req.HasExternalReviews = true
		case "freshListingsDays":
			req.FreshListingsDays = value.(int)
		case "minReviewCount":
			req.MinReviewCount = value.(int)
		}
	}

	if win.Date != "" {
		req.AvailabilityDate = win.Date
		req.AvailabilityDayOfWeek = win.DayOfWeek()
	}

	return req
}

// QueryValues flattens the same projection onto URL query parameters for the
// legacy listing-search endpoint.
func (r CountRequest) QueryValues() url.Values {
	q := url.Values{}

	if r.Category != "" {
		q.Set("category", r.Category)
	}
	if r.City != "" {
		q.Set("city", r.City)
	}
	if r.Latitude != nil {
		q.Set("latitude", ftoa(*r.Latitude))
	}
	if r.Longitude != nil {
		q.Set("longitude", ftoa(*r.Longitude))
	}
	if r.RadiusMiles != nil {
		q.Set("radiusMiles", ftoa(*r.RadiusMiles))
	}
	if len(r.EventTypes) > 0 {
		q.Set("eventTypes", joinIDs(r.EventTypes))
	}
	if len(r.Cultures) > 0 {
		q.Set("cultures", joinIDs(r.Cultures))
	}
	if len(r.Subcategories) > 0 {
		q.Set("subcategories", joinIDs(r.Subcategories))
	}
	if len(r.Features) > 0 {
		q.Set("features", joinIDs(r.Features))
	}
	if r.ExperienceRange != "" {
		q.Set("experienceRange", r.ExperienceRange)
	}
	if r.ServiceLocation != "" {
		q.Set("serviceLocation", r.ServiceLocation)
	}
	if r.MinPrice != nil {
		q.Set("minPrice", strconv.Itoa(*r.MinPrice))
	}
	if r.MaxPrice != nil {
		q.Set("maxPrice", strconv.Itoa(*r.MaxPrice))
	}
	if r.MinRating != "" {
		q.Set("minRating", r.MinRating)
	}
	if r.InstantBookingOnly {
		q.Set("instantBookingOnly", "true")
	}
	if r.HasExternalReviews {
		q.Set("hasExternalReviews", "true")
	}
	if r.FreshListingsDays > 0 {
		q.Set("freshListingsDays", strconv.Itoa(r.FreshListingsDays))
	}
	if r.MinReviewCount > 0 {
		q.Set("minReviewCount", strconv.Itoa(r.MinReviewCount))
	}
	if r.AvailabilityDate != "" {
		q.Set("availabilityDate", r.AvailabilityDate)
	}
	if r.AvailabilityDayOfWeek != "" {
		q.Set("availabilityDayOfWeek", r.AvailabilityDayOfWeek)
	}

	return q
}

// Query is the final object handed to the results view on apply.
type Query map[string]interface{}

// Compose merges the three inputs into the final query. Pure: no network
// calls, no side effects, deterministic given its inputs.
func Compose(loc *location.State, win availability.Window, crit filters.Criteria, category, city string) Query {
	q := Query{}

	if category != "" {
		q["category"] = category
	}
	if city != "" {
		q["city"] = city
	}

	if loc != nil {
		if loc.DisplayText != "" {
			q["location"] = loc.DisplayText
		}
		if loc.Coordinates != nil {
			q["latitude"] = loc.Coordinates.Lat
			q["longitude"] = loc.Coordinates.Lng
			q["radiusKm"] = loc.RadiusKm
		}
	}

	if win.Date != "" {
		q["availabilityDate"] = win.Date
	}
	if win.StartTime != "" {
		q["startTime"] = win.StartTime
	}
	if win.EndTime != "" {
		q["endTime"] = win.EndTime
	}

	for key, value := range crit.ToQueryFragment() {
		q[key] = value
	}

	return q
}

func milesFromKm(km float64) float64 {
	return math.Round(km/kmPerMile*10) / 10
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
