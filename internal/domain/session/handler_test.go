package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vendora/vendora-search/internal/domain/location"
	"github.com/vendora/vendora-search/internal/domain/search"
	"github.com/vendora/vendora-search/internal/pkg/geocode"
	"github.com/vendora/vendora-search/internal/pkg/ipgeo"
)

type stubCounter struct {
	count int
	err   error
}

func (s *stubCounter) Count(ctx context.Context, req search.CountRequest) (int, error) {
	return s.count, s.err
}

func (s *stubCounter) LegacyCount(ctx context.Context, req search.CountRequest) (int, error) {
	return s.count, s.err
}

func deadProviderChain(t *testing.T) *ipgeo.Chain {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	return ipgeo.NewChain([]ipgeo.Provider{{
		Name:     "dead",
		Timeout:  time.Second,
		Endpoint: func(ip string) string { return server.URL },
		Parse:    func(body []byte) (*ipgeo.Location, error) { return nil, nil },
	}})
}

func downGeocoder(t *testing.T) *geocode.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)
	return geocode.NewClient(server.URL, "", time.Second, time.Minute)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	manager := NewManager(time.Hour)
	resolver := location.NewResolver(deadProviderChain(t), downGeocoder(t))
	store := location.NewStore(nil, time.Hour)
	service := NewService(manager, resolver, store, &stubCounter{count: 12}, 5*time.Millisecond)
	handler := NewHandler(service)

	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var envelope map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil && resp.StatusCode != http.StatusNoContent {
		t.Fatalf("decode response: %v", err)
	}
	return resp, envelope
}

func createSession(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp, envelope := doJSON(t, http.MethodPost, server.URL+"/", CreateRequest{Category: "photographers"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: got status %d", resp.StatusCode)
	}
	data := envelope["data"].(map[string]interface{})
	return data["id"].(string)
}

func sessionData(t *testing.T, envelope map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := envelope["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing data envelope: %v", envelope)
	}
	return data
}

func TestCreateSession(t *testing.T) {
	server := newTestServer(t)

	resp, envelope := doJSON(t, http.MethodPost, server.URL+"/", CreateRequest{Category: "caterers", City: "austin"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	data := sessionData(t, envelope)
	if data["id"] == "" {
		t.Error("expected a session id")
	}
	if data["category"] != "caterers" {
		t.Errorf("category: got %v", data["category"])
	}
	options := data["radius_options"].([]interface{})
	if len(options) != 5 {
		t.Errorf("radius options: got %v", options)
	}
	// Every location source is down, so the session starts without one.
	if _, ok := data["location"]; ok {
		t.Errorf("expected no location, got %v", data["location"])
	}
}

func TestGetUnknownSession(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/does-not-exist", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestSetLocationTextKeepsRawTextWhenGeocoderDown(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	resp, envelope := doJSON(t, http.MethodPut, server.URL+"/"+id+"/location/text", LocationTextRequest{Text: "Springfield"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	loc := sessionData(t, envelope)["location"].(map[string]interface{})
	if loc["display_text"] != "Springfield" {
		t.Errorf("display_text: got %v", loc["display_text"])
	}
	if loc["source"] != "user_text" {
		t.Errorf("source: got %v", loc["source"])
	}
}

func TestSetLocationPlaceUsesTypedComponents(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	place := geocode.Result{
		FormattedAddress: "123 Main St, Austin, TX 78701, USA",
		AddressComponents: []geocode.Component{
			{LongName: "Austin", Types: []string{"locality"}},
			{LongName: "Texas", Types: []string{"administrative_area_level_1"}},
		},
	}
	place.Geometry.Location.Lat = 30.27
	place.Geometry.Location.Lng = -97.74

	resp, envelope := doJSON(t, http.MethodPut, server.URL+"/"+id+"/location/place", LocationPlaceRequest{Place: place})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	loc := sessionData(t, envelope)["location"].(map[string]interface{})
	if loc["display_text"] != "Austin, Texas" {
		t.Errorf("display_text: got %v", loc["display_text"])
	}
	if loc["source"] != "place_select" {
		t.Errorf("source: got %v", loc["source"])
	}
}

func TestSetRadiusSnapsToAllowedSet(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	// Radius needs a location first.
	doJSON(t, http.MethodPut, server.URL+"/"+id+"/location/device", CoordinatesRequest{Latitude: 30.27, Longitude: -97.74})

	resp, envelope := doJSON(t, http.MethodPut, server.URL+"/"+id+"/location/radius", RadiusRequest{RadiusKm: 60})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	loc := sessionData(t, envelope)["location"].(map[string]interface{})
	if loc["radius_km"] != 50.0 {
		t.Errorf("radius: got %v, want 50", loc["radius_km"])
	}
}

func TestAvailabilityDateValidation(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	resp, _ := doJSON(t, http.MethodPut, server.URL+"/"+id+"/availability/date", DateRequest{Date: "06/14/2025"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want 422", resp.StatusCode)
	}
}

func TestInvalidTimeRangeBlocksApplyButKeepsValues(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	doJSON(t, http.MethodPut, server.URL+"/"+id+"/availability/date", DateRequest{Date: "2025-06-14"})
	doJSON(t, http.MethodPut, server.URL+"/"+id+"/availability/start", TimeRequest{Time: "18:00"})
	_, envelope := doJSON(t, http.MethodPut, server.URL+"/"+id+"/availability/end", TimeRequest{Time: "14:00"})

	win := sessionData(t, envelope)["availability"].(map[string]interface{})
	if win["start_time"] != "18:00" || win["end_time"] != "14:00" {
		t.Errorf("values must be kept: %v", win)
	}
	if win["validation_error"] == nil || win["validation_error"] == "" {
		t.Error("expected a validation error on the window")
	}

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/"+id+"/apply", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("apply status: got %d, want 422", resp.StatusCode)
	}

	// Correcting the end time clears the error and unblocks apply.
	doJSON(t, http.MethodPut, server.URL+"/"+id+"/availability/end", TimeRequest{Time: "20:00"})
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/"+id+"/apply", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("apply after fix: got %d, want 200", resp.StatusCode)
	}
}

func TestFilterUpdateAndClear(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	minPrice, maxPrice := 50, 300
	rating := "4"
	_, envelope := doJSON(t, http.MethodPatch, server.URL+"/"+id+"/filters", map[string]interface{}{
		"min_price":  minPrice,
		"max_price":  maxPrice,
		"min_rating": rating,
	})

	data := sessionData(t, envelope)
	if data["active_filters"] != 2.0 {
		t.Errorf("active_filters: got %v, want 2", data["active_filters"])
	}

	_, envelope = doJSON(t, http.MethodDelete, server.URL+"/"+id+"/filters", nil)
	if got := sessionData(t, envelope)["active_filters"]; got != 0.0 {
		t.Errorf("active_filters after clear: got %v", got)
	}
}

func TestFilterValidationRejectsBadRating(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	resp, _ := doJSON(t, http.MethodPatch, server.URL+"/"+id+"/filters", map[string]interface{}{
		"min_rating": "5",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want 422", resp.StatusCode)
	}
}

func TestApplyComposesQuery(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	doJSON(t, http.MethodPatch, server.URL+"/"+id+"/filters", map[string]interface{}{
		"min_price":            50,
		"max_price":            300,
		"min_rating":           "4",
		"instant_booking_only": true,
	})
	doJSON(t, http.MethodPut, server.URL+"/"+id+"/availability/date", DateRequest{Date: "2025-06-14"})
	doJSON(t, http.MethodPut, server.URL+"/"+id+"/availability/start", TimeRequest{Time: "14:00"})
	doJSON(t, http.MethodPut, server.URL+"/"+id+"/availability/end", TimeRequest{Time: "18:00"})

	resp, envelope := doJSON(t, http.MethodPost, server.URL+"/"+id+"/apply", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	query := sessionData(t, envelope)["query"].(map[string]interface{})
	want := map[string]interface{}{
		"category":           "photographers",
		"minPrice":           50.0,
		"maxPrice":           300.0,
		"minRating":          "4",
		"instantBookingOnly": true,
		"availabilityDate":   "2025-06-14",
		"startTime":          "14:00",
		"endTime":            "18:00",
	}
	if len(query) != len(want) {
		t.Errorf("query keys: got %v, want exactly %v", query, want)
	}
	for key, value := range want {
		if query[key] != value {
			t.Errorf("query[%s]: got %v, want %v", key, query[key], value)
		}
	}
}

func TestCountEndpointReflectsPipeline(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	doJSON(t, http.MethodPatch, server.URL+"/"+id+"/filters", map[string]interface{}{"min_price": 100})

	// Give the debounced pipeline time to fire.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, envelope := doJSON(t, http.MethodGet, server.URL+"/"+id+"/count", nil)
		frame := sessionData(t, envelope)
		if frame["has_count"] == true {
			if frame["count"] != 12.0 {
				t.Errorf("count: got %v, want 12", frame["count"])
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("count never resolved")
}

func TestDeleteSession(t *testing.T) {
	server := newTestServer(t)
	id := createSession(t, server)

	resp, _ := doJSON(t, http.MethodDelete, server.URL+"/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want 404", resp.StatusCode)
	}
}
