package location

// Source tags how a location state was produced.
type Source string

const (
	SourceUserText    Source = "user_text"
	SourceBrowserGeo  Source = "browser_geo"
	SourceIPGeo       Source = "ip_geo"
	SourcePlaceSelect Source = "place_select"
)

// Coordinates is a WGS 84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultRadiusKm is applied when no explicit radius has been chosen.
const DefaultRadiusKm = 25

// radiusOptions is the fixed enumerated set of allowed search radii.
var radiusOptions = []float64{5, 10, 25, 50, 100}

// State is the resolved search location. Coordinates is nil only when the
// source is user text and no geocode has completed yet.
type State struct {
	DisplayText string       `json:"display_text"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Source      Source       `json:"source"`
	RadiusKm    float64      `json:"radius_km"`
}

// NormalizeRadius snaps an arbitrary radius onto the nearest allowed option.
func NormalizeRadius(v float64) float64 {
	if v <= 0 {
		return DefaultRadiusKm
	}
	best := radiusOptions[0]
	bestDiff := diff(v, best)
	for _, opt := range radiusOptions[1:] {
		if d := diff(v, opt); d < bestDiff {
			best = opt
			bestDiff = d
		}
	}
	return best
}

// RadiusOptions returns the allowed radius set for the UI.
func RadiusOptions() []float64 {
	out := make([]float64, len(radiusOptions))
	copy(out, radiusOptions)
	return out
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
