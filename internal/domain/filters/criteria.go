package filters

import "sort"

// Price bounds for the range slider.
const (
	PriceFloor = 0
	PriceCeil  = 10000
)

// FreshListingsWindowDays is the lookback window the fresh-listings toggle
// projects onto the count query.
const FreshListingsWindowDays = 30

// Criteria is a flat record of independent, orthogonal filter dimensions.
// Every field has a neutral value that is excluded from outgoing queries so a
// cleared filter never overrides a backend default.
type Criteria struct {
	MinPrice int `json:"min_price"`
	MaxPrice int `json:"max_price"`

	MinRating string `json:"min_rating,omitempty"` // "", "3", "4", "4.5"

	EventTypes    []int `json:"event_types,omitempty"`
	Cultures      []int `json:"cultures,omitempty"`
	Subcategories []int `json:"subcategories,omitempty"`
	Features      []int `json:"features,omitempty"`

	ExperienceRange string `json:"experience_range,omitempty"`
	ServiceLocation string `json:"service_location,omitempty"`

	InstantBookingOnly bool `json:"instant_booking_only,omitempty"`
	HasExternalReviews bool `json:"has_external_reviews,omitempty"`
	FreshListingsOnly  bool `json:"fresh_listings_only,omitempty"`

	MinReviewCount int `json:"min_review_count,omitempty"`
}

// Partial carries the fields of one filter edit. Nil means "leave unchanged".
type Partial struct {
	MinPrice *int `json:"min_price"`
	MaxPrice *int `json:"max_price"`

	MinRating *string `json:"min_rating" validate:"omitempty,min_rating"`

	EventTypes    *[]int `json:"event_types"`
	Cultures      *[]int `json:"cultures"`
	Subcategories *[]int `json:"subcategories"`
	Features      *[]int `json:"features"`

	ExperienceRange *string `json:"experience_range"`
	ServiceLocation *string `json:"service_location"`

	InstantBookingOnly *bool `json:"instant_booking_only"`
	HasExternalReviews *bool `json:"has_external_reviews"`
	FreshListingsOnly  *bool `json:"fresh_listings_only"`

	MinReviewCount *int `json:"min_review_count" validate:"omitempty,gte=0"`
}

// New returns criteria with every dimension at its neutral value.
func New() Criteria {
	return Criteria{
		MinPrice: PriceFloor,
		MaxPrice: PriceCeil,
	}
}

// Merge applies a partial edit, clamping the price range to its bounds and
// normalizing ID sets.
func (c *Criteria) Merge(p Partial) {
	if p.MinPrice != nil {
		c.MinPrice = clamp(*p.MinPrice, PriceFloor, PriceCeil)
	}
	if p.MaxPrice != nil {
		c.MaxPrice = clamp(*p.MaxPrice, PriceFloor, PriceCeil)
	}
	if p.MinRating != nil {
		c.MinRating = *p.MinRating
	}
	if p.EventTypes != nil {
		c.EventTypes = normalizeSet(*p.EventTypes)
	}
	if p.Cultures != nil {
		c.Cultures = normalizeSet(*p.Cultures)
	}
	if p.Subcategories != nil {
		c.Subcategories = normalizeSet(*p.Subcategories)
	}
	if p.Features != nil {
		c.Features = normalizeSet(*p.Features)
	}
	if p.ExperienceRange != nil {
		c.ExperienceRange = *p.ExperienceRange
	}
	if p.ServiceLocation != nil {
		c.ServiceLocation = *p.ServiceLocation
	}
	if p.InstantBookingOnly != nil {
		c.InstantBookingOnly = *p.InstantBookingOnly
	}
	if p.HasExternalReviews != nil {
		c.HasExternalReviews = *p.HasExternalReviews
	}
	if p.FreshListingsOnly != nil {
		c.FreshListingsOnly = *p.FreshListingsOnly
	}
	if p.MinReviewCount != nil {
		c.MinReviewCount = *p.MinReviewCount
	}
}

// Clear resets every dimension to its neutral value. All-or-nothing; there is
// no per-field undo.
func (c *Criteria) Clear() {
	*c = New()
}

// ToQueryFragment projects the non-neutral dimensions onto backend parameter
// names. Neutral fields are omitted entirely so backend defaults apply.
func (c *Criteria) ToQueryFragment() map[string]interface{} {
	fragment := make(map[string]interface{})

	if c.MinPrice != PriceFloor {
		fragment["minPrice"] = c.MinPrice
	}
	if c.MaxPrice != PriceCeil {
		fragment["maxPrice"] = c.MaxPrice
	}
	if c.MinRating != "" {
		fragment["minRating"] = c.MinRating
	}
	if len(c.EventTypes) > 0 {
		fragment["eventTypes"] = normalizeSet(c.EventTypes)
	}
	if len(c.Cultures) > 0 {
		fragment["cultures"] = normalizeSet(c.Cultures)
	}
	if len(c.Subcategories) > 0 {
		fragment["subcategories"] = normalizeSet(c.Subcategories)
	}
	if len(c.Features) > 0 {
		fragment["features"] = normalizeSet(c.Features)
	}
	if c.ExperienceRange != "" {
		fragment["experienceRange"] = c.ExperienceRange
	}
	if c.ServiceLocation != "" {
		fragment["serviceLocation"] = c.ServiceLocation
	}
	if c.InstantBookingOnly {
		fragment["instantBookingOnly"] = true
	}
	if c.HasExternalReviews {
		fragment["hasExternalReviews"] = true
	}
	if c.FreshListingsOnly {
		fragment["freshListingsDays"] = FreshListingsWindowDays
	}
	if c.MinReviewCount > 0 {
		fragment["minReviewCount"] = c.MinReviewCount
	}

	return fragment
}

// ActiveCount reports how many dimensions deviate from neutral, for the UI
// filter badge. A multi-select dimension counts once no matter how many items
// are selected within it.
func (c *Criteria) ActiveCount() int {
	count := 0

	if c.MinPrice != PriceFloor || c.MaxPrice != PriceCeil {
		count++
	}
	if c.MinRating != "" {
		count++
	}
	if len(c.EventTypes) > 0 {
		count++
	}
	if len(c.Cultures) > 0 {
		count++
	}
	if len(c.Subcategories) > 0 {
		count++
	}
	if len(c.Features) > 0 {
		count++
	}
	if c.ExperienceRange != "" {
		count++
	}
	if c.ServiceLocation != "" {
		count++
	}
	if c.InstantBookingOnly {
		count++
	}
	if c.HasExternalReviews {
		count++
	}
	if c.FreshListingsOnly {
		count++
	}
	if c.MinReviewCount > 0 {
		count++
	}

	return count
}

func normalizeSet(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
