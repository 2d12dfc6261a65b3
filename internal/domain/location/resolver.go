package location

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vendora/vendora-search/internal/pkg/geocode"
	"github.com/vendora/vendora-search/internal/pkg/ipgeo"
)

// Resolver reconciles the asynchronous location sources into one State.
// Every path degrades: a total provider failure leaves the location unset and
// is logged, never surfaced to the user.
type Resolver struct {
	chain    *ipgeo.Chain
	geocoder *geocode.Client
}

// NewResolver creates a location resolver
func NewResolver(chain *ipgeo.Chain, geocoder *geocode.Client) *Resolver {
	return &Resolver{
		chain:    chain,
		geocoder: geocoder,
	}
}

// DetectPassively resolves a best-effort location from the client IP without
// any permission prompt. Returns nil when every provider fails; callers must
// treat that as "no location" and carry on.
func (r *Resolver) DetectPassively(ctx context.Context, clientIP string) *State {
	loc, err := r.chain.Resolve(ctx, clientIP)
	if err != nil {
		log.Warn().Err(err).Str("ip", clientIP).Msg("passive location detection failed")
		return nil
	}

	return &State{
		DisplayText: joinCityRegion(loc.City, loc.Region),
		Coordinates: &Coordinates{Lat: loc.Lat, Lng: loc.Lng},
		Source:      SourceIPGeo,
		RadiusKm:    DefaultRadiusKm,
	}
}

// ResolveFromDevice handles device-granted geolocation: reverse-geocode the
// coordinates to a display string. A reverse-geocode failure keeps the
// coordinates and leaves the label empty rather than erroring.
func (r *Resolver) ResolveFromDevice(ctx context.Context, lat, lng float64) *State {
	state := &State{
		Coordinates: &Coordinates{Lat: lat, Lng: lng},
		Source:      SourceBrowserGeo,
		RadiusKm:    DefaultRadiusKm,
	}

	addr, err := r.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		log.Warn().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("reverse geocode failed, keeping bare coordinates")
		return state
	}

	state.DisplayText = addr.DisplayText()
	return state
}

// ResolveFromDeviceDenied handles a refused or failed device geolocation
// request by falling back to the same passive IP chain. Never a hard error.
func (r *Resolver) ResolveFromDeviceDenied(ctx context.Context, clientIP string) *State {
	log.Debug().Str("ip", clientIP).Msg("device geolocation unavailable, falling back to ip chain")
	return r.DetectPassively(ctx, clientIP)
}

// ResolveFromText geocodes an explicit user-typed location. When the geocode
// fails the raw text is kept with nil coordinates; the state is still usable
// as a city filter.
func (r *Resolver) ResolveFromText(ctx context.Context, text string) *State {
	text = strings.TrimSpace(text)
	state := &State{
		DisplayText: text,
		Source:      SourceUserText,
		RadiusKm:    DefaultRadiusKm,
	}
	if text == "" {
		return state
	}

	addr, err := r.geocoder.Forward(ctx, text)
	if err != nil {
		log.Warn().Err(err).Str("text", text).Msg("forward geocode failed, keeping raw text")
		return state
	}

	state.DisplayText = addr.DisplayText()
	state.Coordinates = &Coordinates{Lat: addr.Lat, Lng: addr.Lng}
	return state
}

// ResolveFromPlace extracts the normalized city/region from an autocomplete
// selection using typed component lookup.
func (r *Resolver) ResolveFromPlace(place geocode.Result) *State {
	addr := geocode.ExtractAddress(place)
	state := &State{
		DisplayText: addr.DisplayText(),
		Source:      SourcePlaceSelect,
		RadiusKm:    DefaultRadiusKm,
	}
	if addr.Lat != 0 || addr.Lng != 0 {
		state.Coordinates = &Coordinates{Lat: addr.Lat, Lng: addr.Lng}
	}
	return state
}

// RecenterFromMap handles a map drag or click: reverse-geocode the new center
// and overwrite any prior source tag with an explicit selection.
func (r *Resolver) RecenterFromMap(ctx context.Context, lat, lng float64) *State {
	state := r.ResolveFromDevice(ctx, lat, lng)
	state.Source = SourcePlaceSelect
	return state
}

func joinCityRegion(city, region string) string {
	switch {
	case city != "" && region != "":
		return city + ", " + region
	case city != "":
		return city
	default:
		return region
	}
}
