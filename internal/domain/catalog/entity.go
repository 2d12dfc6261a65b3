package catalog

// Option is one selectable entry in a multi-select filter dimension.
type Option struct {
	ID    int    `json:"id" db:"id"`
	Slug  string `json:"slug" db:"slug"`
	Label string `json:"label" db:"label"`
}

// Preset is one entry in an enumerated single-select dimension, keyed by slug
// rather than numeric ID.
type Preset struct {
	Slug  string `json:"slug" db:"slug"`
	Label string `json:"label" db:"label"`
}

// FilterCatalog is the full set of filter options the panel renders from.
type FilterCatalog struct {
	EventTypes       []Option `json:"event_types"`
	Cultures         []Option `json:"cultures"`
	Subcategories    []Option `json:"subcategories"`
	Features         []Option `json:"features"`
	ExperienceRanges []Preset `json:"experience_ranges"`
	ServiceLocations []Preset `json:"service_locations"`
}
