package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const defaultBackendTimeout = 8 * time.Second

// Counter is what the preview pipeline needs from the marketplace backend.
type Counter interface {
	// Count queries the primary count endpoint.
	Count(ctx context.Context, req CountRequest) (int, error)
	// LegacyCount queries the legacy listing-search endpoint with the same
	// criteria projected onto URL parameters and extracts the total.
	LegacyCount(ctx context.Context, req CountRequest) (int, error)
}

// CountClient talks to the marketplace backend's count endpoints.
type CountClient struct {
	baseURL string
	http    *http.Client
}

// NewCountClient creates a backend count client
func NewCountClient(baseURL string, timeout time.Duration) *CountClient {
	if timeout <= 0 {
		timeout = defaultBackendTimeout
	}

	return &CountClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Count queries POST /api/v1/listings/count with the full JSON projection.
func (c *CountClient) Count(ctx context.Context, req CountRequest) (int, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("count request error: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/listings/count", bytes.NewBuffer(payload))
	if err != nil {
		return 0, fmt.Errorf("count request error: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("count request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("count http error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var result struct {
		Count *int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("count decode error: %w", err)
	}
	if result.Count == nil {
		return 0, fmt.Errorf("count decode error: missing count field")
	}

	return *result.Count, nil
}

// LegacyCount queries GET /api/v1/listings/search with pageSize=1 and reads
// the total from the totalCount field, top-level or nested under meta.
func (c *CountClient) LegacyCount(ctx context.Context, req CountRequest) (int, error) {
	params := req.QueryValues()
	params.Set("pageSize", "1")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/listings/search?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("legacy count request error: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("legacy count request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("legacy count http error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var result struct {
		TotalCount *int `json:"totalCount"`
		Meta       struct {
			TotalCount *int `json:"totalCount"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("legacy count decode error: %w", err)
	}

	switch {
	case result.TotalCount != nil:
		return *result.TotalCount, nil
	case result.Meta.TotalCount != nil:
		return *result.Meta.TotalCount, nil
	default:
		return 0, fmt.Errorf("legacy count decode error: missing totalCount field")
	}
}
