package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/openchess/tourmap/app/sources"
)

// HTMLSource crawls a paginated HTML listing site. Pages within a region
// are fetched sequentially; the page number advances even past a failed
// page so one bad response cannot stall the whole region.
type HTMLSource struct {
	name       string
	baseURL    string
	userAgent  string
	timeout    time.Duration
	maxPages   int
	pageSize   int
	httpClient *http.Client
}

var _ Source = (*HTMLSource)(nil)

func NewHTMLSource(config *sources.Config, httpClient *http.Client, userAgent string) *HTMLSource {
	return &HTMLSource{
		name:       config.Name,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		userAgent:  userAgent,
		timeout:    time.Duration(config.Settings.Timeout) * time.Second,
		maxPages:   config.Settings.MaxPages,
		pageSize:   config.Settings.PageSize,
		httpClient: httpClient,
	}
}

func (s *HTMLSource) Name() string { return s.name }

func (s *HTMLSource) Scan(regionCode string) Scan {
	return &htmlScan{src: s, region: regionCode, page: 1}
}

type htmlScan struct {
	src    *HTMLSource
	region string
	page   int
	done   bool
}

func (sc *htmlScan) Next(ctx context.Context) ([]RawListing, bool, error) {
	if sc.done {
		return nil, false, nil
	}

	page := sc.page
	sc.page++
	canAdvance := sc.page <= sc.src.maxPages

	listings, hasNext, err := sc.src.fetchPage(ctx, sc.region, page)
	if err != nil {
		sc.done = !canAdvance
		return nil, canAdvance, fmt.Errorf("page %d: %w", page, err)
	}

	if !hasNext || !canAdvance {
		sc.done = true
		return listings, false, nil
	}
	return listings, true, nil
}

func (s *HTMLSource) fetchPage(ctx context.Context, regionCode string, page int) ([]RawListing, bool, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pageURL := fmt.Sprintf("%s/events?region=%s&page=%d", s.baseURL, url.QueryEscape(regionCode), page)

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse HTML: %w", err)
	}

	listings := s.parseListings(doc)
	hasNext := doc.Find("a.next[href]").Length() > 0

	// Some deployments omit the pager link; a full page implies more.
	if !hasNext && len(listings) >= s.pageSize {
		hasNext = true
	}

	return listings, hasNext, nil
}

func (s *HTMLSource) parseListings(doc *goquery.Document) []RawListing {
	var listings []RawListing

	doc.Find("tr.event-row").Each(func(i int, row *goquery.Selection) {
		listing := RawListing{
			SourceID:    row.AttrOr("data-listing-id", ""),
			Name:        text(row, "td.event-name"),
			LocationRaw: text(row, "td.event-location"),
			VenueRaw:    text(row, "td.event-venue"),
			Organizer:   text(row, "td.event-organizer"),
			CategoryRaw: text(row, "td.event-category"),
			TimeCtrlRaw: text(row, "td.event-time-control"),
			RoundsRaw:   text(row, "td.event-rounds"),
			RatedRaw:    row.AttrOr("data-rated", ""),
		}

		if href, ok := row.Find("td.event-name a").Attr("href"); ok {
			listing.URL = s.absoluteURL(href)
		}

		dates := text(row, "td.event-dates")
		listing.StartRaw, listing.EndRaw = splitDateRange(dates)

		if listing.Name != "" {
			listings = append(listings, listing)
		}
	})

	return listings
}

func (s *HTMLSource) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return s.baseURL + "/" + strings.TrimLeft(href, "/")
}

func text(row *goquery.Selection, selector string) string {
	return strings.TrimSpace(row.Find(selector).First().Text())
}

// splitDateRange splits "2026-09-12 – 2026-09-14" (or "to"/"-" separated)
// into start and end; a single date has no end.
func splitDateRange(dates string) (string, string) {
	for _, sep := range []string{"–", " to ", " - "} {
		if strings.Contains(dates, sep) {
			parts := strings.SplitN(dates, sep, 2)
			return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(dates), ""
}
