package ipgeo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const maxResponseBytes = 64 << 10

// ErrAllProvidersFailed is returned when every provider in the chain was tried
// and none produced a usable location.
var ErrAllProvidersFailed = errors.New("all ip geolocation providers failed")

// ErrNoLocation is returned by a parser when the response was well-formed but
// carried no usable location (e.g. a reserved-range IP).
var ErrNoLocation = errors.New("response carries no location")

// Location is the canonical result every provider parser produces.
type Location struct {
	City   string
	Region string
	Lat    float64
	Lng    float64
}

// ParseFunc converts one provider's raw response body into a canonical Location.
type ParseFunc func(body []byte) (*Location, error)

// Provider is one entry in the ordered lookup chain. Each provider knows its
// own endpoint shape and supplies its own parser.
type Provider struct {
	Name     string
	Timeout  time.Duration
	Endpoint func(ip string) string
	Parse    ParseFunc
}

// Chain tries an ordered list of IP-geolocation providers and returns the
// first parseable response. Individual provider failures are logged, never
// returned; only total exhaustion is an error.
type Chain struct {
	providers []Provider
	http      *http.Client
}

// NewChain creates a provider chain sharing one HTTP client
func NewChain(providers []Provider) *Chain {
	return &Chain{
		providers: providers,
		http: &http.Client{
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

// Resolve runs the chain for the given IP. Loopback and private addresses are
// queried without an IP so the provider resolves the egress address instead.
func (c *Chain) Resolve(ctx context.Context, ip string) (*Location, error) {
	if !isPublicIP(ip) {
		ip = ""
	}

	for _, p := range c.providers {
		loc, err := c.tryProvider(ctx, p, ip)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			log.Warn().
				Err(err).
				Str("provider", p.Name).
				Msg("ip geolocation provider failed, trying next")
			continue
		}
		return loc, nil
	}

	return nil, ErrAllProvidersFailed
}

func (c *Chain) tryProvider(ctx context.Context, p Provider, ip string) (*Location, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Endpoint(ip), nil)
	if err != nil {
		return nil, fmt.Errorf("%s request error: %w", p.Name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request error: %w", p.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s http error: status=%d", p.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s read error: %w", p.Name, err)
	}

	loc, err := p.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%s parse error: %w", p.Name, err)
	}
	if loc == nil {
		return nil, fmt.Errorf("%s: %w", p.Name, ErrNoLocation)
	}

	return loc, nil
}

func isPublicIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return !parsed.IsLoopback() && !parsed.IsPrivate() && !parsed.IsUnspecified()
}
