package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FreeClient calls the unauthenticated public geocoder (Nominatim-style
// search API). Its usage policy caps request rate, so every call must pass
// the shared Limiter first; this client does not gate itself.
type FreeClient struct {
	baseURL      string
	userAgent    string
	contactEmail string
	httpClient   *http.Client
}

func NewFreeClient(baseURL, userAgent, contactEmail string, timeout time.Duration) *FreeClient {
	return &FreeClient{
		baseURL:      baseURL,
		userAgent:    userAgent,
		contactEmail: contactEmail,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GeocodeCity resolves a city plus optional country code. The bool result
// is false when the service returned no match; an error means the call
// itself failed.
func (c *FreeClient) GeocodeCity(ctx context.Context, city, country string) (Point, bool, error) {
	params := url.Values{
		"city":   {city},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	if country != "" {
		params.Set("countrycodes", strings.ToLower(country))
	}
	if c.contactEmail != "" {
		params.Set("email", c.contactEmail)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Point{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Point{}, false, fmt.Errorf("free geocoder request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Point{}, false, fmt.Errorf("free geocoder error: status %d", resp.StatusCode)
	}

	var results []freeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Point{}, false, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(results) == 0 {
		return Point{}, false, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Point{}, false, fmt.Errorf("bad latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Point{}, false, fmt.Errorf("bad longitude %q: %w", results[0].Lon, err)
	}

	return Point{Lat: lat, Lng: lng}, true, nil
}

type freeResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
