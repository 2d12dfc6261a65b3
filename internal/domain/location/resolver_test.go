package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vendora/vendora-search/internal/pkg/geocode"
	"github.com/vendora/vendora-search/internal/pkg/ipgeo"
)

const reverseBody = `{
	"status": "OK",
	"results": [{
		"formatted_address": "Seattle, WA, USA",
		"geometry": {"location": {"lat": 47.6062, "lng": -122.3321}},
		"address_components": [
			{"long_name": "Seattle", "short_name": "Seattle", "types": ["locality"]},
			{"long_name": "Washington", "short_name": "WA", "types": ["administrative_area_level_1"]},
			{"long_name": "United States", "short_name": "US", "types": ["country"]}
		]
	}]
}`

func testChain(t *testing.T, handler http.HandlerFunc) *ipgeo.Chain {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return ipgeo.NewChain([]ipgeo.Provider{{
		Name:    "test",
		Timeout: time.Second,
		Endpoint: func(ip string) string {
			return server.URL + "/" + ip
		},
		Parse: func(body []byte) (*ipgeo.Location, error) {
			return &ipgeo.Location{City: "Austin", Region: "Texas", Lat: 30.27, Lng: -97.74}, nil
		},
	}})
}

func deadChain(t *testing.T) *ipgeo.Chain {
	t.Helper()
	return testChainStatus(t, http.StatusServiceUnavailable)
}

func testChainStatus(t *testing.T, status int) *ipgeo.Chain {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	return ipgeo.NewChain([]ipgeo.Provider{{
		Name:    "dead",
		Timeout: time.Second,
		Endpoint: func(ip string) string {
			return server.URL
		},
		Parse: func(body []byte) (*ipgeo.Location, error) {
			return nil, nil
		},
	}})
}

func testGeocoder(t *testing.T, handler http.HandlerFunc) *geocode.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return geocode.NewClient(server.URL, "", time.Second, time.Minute)
}

func okGeocoder(t *testing.T) *geocode.Client {
	t.Helper()
	return testGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(reverseBody))
	})
}

func downGeocoder(t *testing.T) *geocode.Client {
	t.Helper()
	return testGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
}

func TestDetectPassivelySetsIPGeoSource(t *testing.T) {
	resolver := NewResolver(testChain(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}), okGeocoder(t))

	state := resolver.DetectPassively(context.Background(), "8.8.8.8")
	if state == nil {
		t.Fatal("expected a state")
	}
	if state.Source != SourceIPGeo {
		t.Errorf("source: got %s, want %s", state.Source, SourceIPGeo)
	}
	if state.DisplayText != "Austin, Texas" {
		t.Errorf("display text: got %q", state.DisplayText)
	}
	if state.Coordinates == nil {
		t.Error("expected coordinates")
	}
	if state.RadiusKm != DefaultRadiusKm {
		t.Errorf("radius: got %v", state.RadiusKm)
	}
}

func TestDetectPassivelyTotalFailureReturnsNil(t *testing.T) {
	resolver := NewResolver(deadChain(t), okGeocoder(t))
	if state := resolver.DetectPassively(context.Background(), "8.8.8.8"); state != nil {
		t.Fatalf("expected nil state, got %+v", state)
	}
}

func TestResolveFromDeviceReverseGeocodes(t *testing.T) {
	resolver := NewResolver(deadChain(t), okGeocoder(t))
	state := resolver.ResolveFromDevice(context.Background(), 47.6062, -122.3321)

	if state.Source != SourceBrowserGeo {
		t.Errorf("source: got %s", state.Source)
	}
	if state.DisplayText != "Seattle, Washington" {
		t.Errorf("display text: got %q", state.DisplayText)
	}
	if state.Coordinates == nil || state.Coordinates.Lat != 47.6062 {
		t.Errorf("coordinates: got %+v", state.Coordinates)
	}
}

func TestResolveFromDeviceKeepsCoordinatesWhenGeocoderDown(t *testing.T) {
	resolver := NewResolver(deadChain(t), downGeocoder(t))
	state := resolver.ResolveFromDevice(context.Background(), 47.6, -122.3)

	if state == nil || state.Coordinates == nil {
		t.Fatal("expected state with coordinates despite geocoder failure")
	}
	if state.DisplayText != "" {
		t.Errorf("expected empty label, got %q", state.DisplayText)
	}
}

func TestDeviceDeniedFallsBackToChain(t *testing.T) {
	resolver := NewResolver(testChain(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}), okGeocoder(t))

	state := resolver.ResolveFromDeviceDenied(context.Background(), "8.8.8.8")
	if state == nil {
		t.Fatal("expected fallback state")
	}
	if state.Source != SourceIPGeo {
		t.Errorf("source: got %s, want %s", state.Source, SourceIPGeo)
	}
}

func TestDeviceDeniedWithDeadChainLeavesLocationUnset(t *testing.T) {
	resolver := NewResolver(deadChain(t), okGeocoder(t))
	if state := resolver.ResolveFromDeviceDenied(context.Background(), "8.8.8.8"); state != nil {
		t.Fatalf("expected nil, got %+v", state)
	}
}

func TestResolveFromTextKeepsRawTextOnGeocodeFailure(t *testing.T) {
	resolver := NewResolver(deadChain(t), downGeocoder(t))
	state := resolver.ResolveFromText(context.Background(), "Springfield")

	if state.Source != SourceUserText {
		t.Errorf("source: got %s", state.Source)
	}
	if state.DisplayText != "Springfield" {
		t.Errorf("display text: got %q", state.DisplayText)
	}
	if state.Coordinates != nil {
		t.Errorf("coordinates must stay nil until a geocode completes, got %+v", state.Coordinates)
	}
}

func TestResolveFromTextGeocodes(t *testing.T) {
	resolver := NewResolver(deadChain(t), okGeocoder(t))
	state := resolver.ResolveFromText(context.Background(), "Seattle")

	if state.Coordinates == nil {
		t.Fatal("expected coordinates")
	}
	if state.DisplayText != "Seattle, Washington" {
		t.Errorf("display text: got %q", state.DisplayText)
	}
}

func TestResolveFromPlaceUsesTypedExtraction(t *testing.T) {
	resolver := NewResolver(deadChain(t), okGeocoder(t))
	state := resolver.ResolveFromPlace(geocode.Result{
		FormattedAddress: "123 Main St, Austin, TX 78701, USA",
		AddressComponents: []geocode.Component{
			{LongName: "123", Types: []string{"street_number"}},
			{LongName: "Main St", Types: []string{"route"}},
			{LongName: "Austin", Types: []string{"locality"}},
			{LongName: "Texas", Types: []string{"administrative_area_level_1"}},
			{LongName: "United States", Types: []string{"country"}},
		},
	})

	if state.Source != SourcePlaceSelect {
		t.Errorf("source: got %s", state.Source)
	}
	// Typed lookup, not parsing of the formatted street address.
	if state.DisplayText != "Austin, Texas" {
		t.Errorf("display text: got %q", state.DisplayText)
	}
}

func TestRecenterFromMapOverwritesSourceTag(t *testing.T) {
	resolver := NewResolver(deadChain(t), okGeocoder(t))
	state := resolver.RecenterFromMap(context.Background(), 47.6, -122.3)

	if state.Source != SourcePlaceSelect {
		t.Errorf("map recenter must tag an explicit selection, got %s", state.Source)
	}
	if state.Coordinates == nil {
		t.Error("expected coordinates")
	}
}

func TestNormalizeRadius(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, DefaultRadiusKm},
		{-5, DefaultRadiusKm},
		{5, 5},
		{7, 5},
		{8, 10},
		{30, 25},
		{60, 50},
		{500, 100},
	}
	for _, tc := range cases {
		if got := NormalizeRadius(tc.in); got != tc.want {
			t.Errorf("NormalizeRadius(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
