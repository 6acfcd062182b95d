package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/openchess/tourmap/app/sources"
)

// RSSSource reads tournament-announcement feeds. A feed is one logical
// page: the whole region arrives in a single fetch and the scan is
// exhausted afterwards.
type RSSSource struct {
	name       string
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	parser     *gofeed.Parser
}

var _ Source = (*RSSSource)(nil)

func NewRSSSource(config *sources.Config, httpClient *http.Client, userAgent string) *RSSSource {
	return &RSSSource{
		name:       config.Name,
		baseURL:    config.BaseURL,
		userAgent:  userAgent,
		timeout:    time.Duration(config.Settings.Timeout) * time.Second,
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
	}
}

func (s *RSSSource) Name() string { return s.name }

func (s *RSSSource) Scan(regionCode string) Scan {
	return &rssScan{src: s, region: regionCode}
}

type rssScan struct {
	src    *RSSSource
	region string
	done   bool
}

func (sc *rssScan) Next(ctx context.Context) ([]RawListing, bool, error) {
	if sc.done {
		return nil, false, nil
	}
	sc.done = true

	listings, err := sc.src.fetchFeed(ctx, sc.region)
	if err != nil {
		return nil, false, err
	}
	return listings, false, nil
}

func (s *RSSSource) fetchFeed(ctx context.Context, regionCode string) ([]RawListing, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	feedURL := s.baseURL
	if strings.Contains(feedURL, "?") {
		feedURL += "&region=" + url.QueryEscape(regionCode)
	} else {
		feedURL += "?region=" + url.QueryEscape(regionCode)
	}

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	listings := make([]RawListing, 0, len(feed.Items))
	for _, item := range feed.Items {
		listing := s.itemToListing(item)
		if listing.Name != "" {
			listings = append(listings, listing)
		}
	}
	return listings, nil
}

// itemToListing maps a feed item onto a raw listing. Announcement feeds
// carry the tournament details as "Key: Value" lines in the description.
func (s *RSSSource) itemToListing(item *gofeed.Item) RawListing {
	listing := RawListing{
		SourceID: item.GUID,
		Name:     strings.TrimSpace(item.Title),
		URL:      item.Link,
	}

	for _, line := range strings.Split(item.Description, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "dates", "date":
			listing.StartRaw, listing.EndRaw = splitDateRange(value)
		case "location":
			listing.LocationRaw = value
		case "venue":
			listing.VenueRaw = value
		case "organizer", "organiser":
			listing.Organizer = value
		case "category", "format":
			listing.CategoryRaw = value
		case "time control":
			listing.TimeCtrlRaw = value
		case "rounds":
			listing.RoundsRaw = value
		case "rated":
			listing.RatedRaw = value
		}
	}

	return listing
}
