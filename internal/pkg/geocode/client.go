package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultTimeout = 6 * time.Second

var (
	// ErrNoResults is returned when the geocoder answered but found nothing.
	ErrNoResults = errors.New("geocoder returned no results")
)

// Address is the structured result of a geocode lookup. Components are
// extracted by type from the provider response, never by parsing the
// formatted string.
type Address struct {
	Locality   string
	AdminArea  string
	Country    string
	PostalCode string
	Formatted  string
	Lat        float64
	Lng        float64
}

// DisplayText renders the "City, Region" label shown in the location field.
func (a *Address) DisplayText() string {
	parts := make([]string, 0, 2)
	if a.Locality != "" {
		parts = append(parts, a.Locality)
	}
	if a.AdminArea != "" {
		parts = append(parts, a.AdminArea)
	}
	if len(parts) == 0 && a.Formatted != "" {
		return a.Formatted
	}
	return strings.Join(parts, ", ")
}

// Component mirrors one typed address component from the provider.
type Component struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Result mirrors one geocoder result entry.
type Result struct {
	FormattedAddress  string      `json:"formatted_address"`
	AddressComponents []Component `json:"address_components"`
	Geometry          struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

type apiResponse struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []Result `json:"results"`
}

// Client is an HTTP client for the geocoding collaborator. Successful lookups
// are cached in-process so repeated edits of the same location text do not
// trigger redundant network calls.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *gocache.Cache
}

// NewClient creates a geocoder client
func NewClient(baseURL, apiKey string, timeout, cacheTTL time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Forward geocodes free text to a structured address.
func (c *Client) Forward(ctx context.Context, query string) (*Address, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("geocode request error: empty query")
	}

	cacheKey := "fwd:" + strings.ToLower(query)
	if cached, ok := c.cache.Get(cacheKey); ok {
		addr := cached.(Address)
		return &addr, nil
	}

	params := url.Values{}
	params.Set("address", query)
	addr, err := c.lookup(ctx, params)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(cacheKey, *addr)
	return addr, nil
}

// Reverse geocodes coordinates to a structured address.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Address, error) {
	cacheKey := "rev:" + formatCoord(lat) + "," + formatCoord(lng)
	if cached, ok := c.cache.Get(cacheKey); ok {
		addr := cached.(Address)
		return &addr, nil
	}

	params := url.Values{}
	params.Set("latlng", formatCoord(lat)+","+formatCoord(lng))
	addr, err := c.lookup(ctx, params)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(cacheKey, *addr)
	return addr, nil
}

func (c *Client) lookup(ctx context.Context, params url.Values) (*Address, error) {
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	endpoint := c.baseURL + "/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("geocode request error: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("geocode http error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("geocode decode error: %w", err)
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResults
	default:
		return nil, fmt.Errorf("geocode status error: %s %s", payload.Status, payload.ErrorMessage)
	}
	if len(payload.Results) == 0 {
		return nil, ErrNoResults
	}

	return ExtractAddress(payload.Results[0]), nil
}

// ExtractAddress builds the canonical Address from one geocoder result using
// typed component lookup.
func ExtractAddress(r Result) *Address {
	addr := &Address{
		Formatted: r.FormattedAddress,
		Lat:       r.Geometry.Location.Lat,
		Lng:       r.Geometry.Location.Lng,
	}

	// Locality candidates in decreasing precision; some regions report towns
	// under postal_town or sublocality instead of locality.
	addr.Locality = componentByTypes(r.AddressComponents, "locality", "postal_town", "sublocality")
	addr.AdminArea = componentByTypes(r.AddressComponents, "administrative_area_level_1")
	addr.Country = componentByTypes(r.AddressComponents, "country")
	addr.PostalCode = componentByTypes(r.AddressComponents, "postal_code")

	return addr
}

func componentByTypes(components []Component, wanted ...string) string {
	for _, want := range wanted {
		for _, c := range components {
			for _, t := range c.Types {
				if t == want {
					return c.LongName
				}
			}
		}
	}
	return ""
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
