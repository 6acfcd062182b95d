package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// PreciseClient calls the paid, keyed geocoding service used for
// organizer-submitted venue addresses. The service takes a full address
// string and returns ranked candidates; only a recognized best match counts
// as success.
type PreciseClient struct {
	baseURL    string
	key        string
	userAgent  string
	httpClient *http.Client
}

func NewPreciseClient(baseURL, key, userAgent string, timeout time.Duration) *PreciseClient {
	return &PreciseClient{
		baseURL:   baseURL,
		key:       key,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Geocode resolves a full address. The bool result is false when the
// service responded but recognized nothing; an error means the service
// itself failed (network, quota, malformed response).
func (c *PreciseClient) Geocode(ctx context.Context, address string) (Point, bool, error) {
	params := url.Values{
		"key":    {c.key},
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Point{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Point{}, false, fmt.Errorf("precise geocoder request: %w", err)
	}
	defer resp.Body.Close()

	// The service signals "no match" with 404 rather than an empty list.
	if resp.StatusCode == http.StatusNotFound {
		return Point{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Point{}, false, fmt.Errorf("precise geocoder error: status %d", resp.StatusCode)
	}

	var candidates []preciseCandidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return Point{}, false, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(candidates) == 0 {
		return Point{}, false, nil
	}

	p, err := candidates[0].point()
	if err != nil {
		return Point{}, false, fmt.Errorf("malformed candidate: %w", err)
	}
	return p, true, nil
}

type preciseCandidate struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c preciseCandidate) point() (Point, error) {
	lat, err := strconv.ParseFloat(c.Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("bad latitude %q: %w", c.Lat, err)
	}
	lng, err := strconv.ParseFloat(c.Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("bad longitude %q: %w", c.Lon, err)
	}
	return Point{Lat: lat, Lng: lng}, nil
}
