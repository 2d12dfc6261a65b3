package ipgeo

import (
	"encoding/json"
	"fmt"
	"time"
)

// Built-in providers. Each upstream returns a different response shape, so
// each entry carries its own parser that maps onto the canonical Location.

func ipapiProvider(timeout time.Duration) Provider {
	return Provider{
		Name:    "ipapi",
		Timeout: timeout,
		Endpoint: func(ip string) string {
			if ip == "" {
				return "https://ipapi.co/json/"
			}
			return "https://ipapi.co/" + ip + "/json/"
		},
		Parse: parseIPAPI,
	}
}

func ipAPIComProvider(timeout time.Duration) Provider {
	return Provider{
		Name:    "ip-api",
		Timeout: timeout,
		Endpoint: func(ip string) string {
			return "http://ip-api.com/json/" + ip
		},
		Parse: parseIPAPICom,
	}
}

func ipwhoisProvider(timeout time.Duration) Provider {
	return Provider{
		Name:    "ipwhois",
		Timeout: timeout,
		Endpoint: func(ip string) string {
			return "https://ipwho.is/" + ip
		},
		Parse: parseIPWhois,
	}
}

// DefaultProviders builds the chain entries for the configured provider names,
// preserving order. Unknown names are skipped.
func DefaultProviders(names []string, timeout time.Duration) []Provider {
	var providers []Provider
	for _, name := range names {
		switch name {
		case "ipapi":
			providers = append(providers, ipapiProvider(timeout))
		case "ip-api":
			providers = append(providers, ipAPIComProvider(timeout))
		case "ipwhois":
			providers = append(providers, ipwhoisProvider(timeout))
		}
	}
	return providers
}

func parseIPAPI(body []byte) (*Location, error) {
	var payload struct {
		Error     bool    `json:"error"`
		Reason    string  `json:"reason"`
		City      string  `json:"city"`
		Region    string  `json:"region"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.Error {
		return nil, fmt.Errorf("upstream error: %s", payload.Reason)
	}
	if payload.City == "" && payload.Latitude == 0 && payload.Longitude == 0 {
		return nil, nil
	}
	return &Location{
		City:   payload.City,
		Region: payload.Region,
		Lat:    payload.Latitude,
		Lng:    payload.Longitude,
	}, nil
}

func parseIPAPICom(body []byte) (*Location, error) {
	var payload struct {
		Status     string  `json:"status"`
		Message    string  `json:"message"`
		City       string  `json:"city"`
		RegionName string  `json:"regionName"`
		Lat        float64 `json:"lat"`
		Lon        float64 `json:"lon"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("upstream error: %s", payload.Message)
	}
	return &Location{
		City:   payload.City,
		Region: payload.RegionName,
		Lat:    payload.Lat,
		Lng:    payload.Lon,
	}, nil
}

func parseIPWhois(body []byte) (*Location, error) {
	var payload struct {
		Success   bool    `json:"success"`
		Message   string  `json:"message"`
		City      string  `json:"city"`
		Region    string  `json:"region"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, fmt.Errorf("upstream error: %s", payload.Message)
	}
	return &Location{
		City:   payload.City,
		Region: payload.Region,
		Lat:    payload.Latitude,
		Lng:    payload.Longitude,
	}, nil
}
