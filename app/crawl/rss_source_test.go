package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openchess/tourmap/app/sources"
)

const announcementFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Bundesland Chess Calendar</title>
    <link>https://calendar.example.org</link>
    <item>
      <guid>bcc-2026-0042</guid>
      <title>Berlin Sommer Open 2026</title>
      <link>https://calendar.example.org/t/bcc-2026-0042</link>
      <description>Dates: 2026-07-18 to 2026-07-26
Location: Berlin, DE
Venue: Mercure Hotel MOA Berlin, Stephanstrasse 41
Organizer: Berliner Schachverband
Category: Classical
Time control: 40/90 + 30
Rounds: 9
Rated: FIDE rated</description>
    </item>
    <item>
      <guid>bcc-2026-0043</guid>
      <title>Kreuzberg Blitz Night</title>
      <link>https://calendar.example.org/t/bcc-2026-0043</link>
      <description>Dates: 2026-08-01
Location: Berlin, DE
Category: Blitz
Rated: unrated</description>
    </item>
  </channel>
</rss>`

func TestRSSSourceParsesAnnouncements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("region") != "de-be" {
			t.Errorf("Expected region query 'de-be', got '%s'", r.URL.Query().Get("region"))
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(announcementFeed))
	}))
	defer srv.Close()

	config := &sources.Config{
		Name:     "bundesland-calendar",
		Kind:     sources.KindRSS,
		BaseURL:  srv.URL,
		Settings: sources.ConfigSettings{Enabled: true, Timeout: 5},
	}
	source := NewRSSSource(config, srv.Client(), "test-agent")
	scan := source.Scan("de-be")

	listings, more, err := scan.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if more {
		t.Error("A feed is a single page; expected scan exhausted")
	}
	if len(listings) != 2 {
		t.Fatalf("Expected 2 listings, got %d", len(listings))
	}

	first := listings[0]
	if first.SourceID != "bcc-2026-0042" {
		t.Errorf("Expected source id from guid, got '%s'", first.SourceID)
	}
	if first.StartRaw != "2026-07-18" || first.EndRaw != "2026-07-26" {
		t.Errorf("Expected date range, got start '%s' end '%s'", first.StartRaw, first.EndRaw)
	}
	if first.LocationRaw != "Berlin, DE" {
		t.Errorf("Expected location 'Berlin, DE', got '%s'", first.LocationRaw)
	}
	if first.VenueRaw == "" {
		t.Error("Expected venue to be carried through")
	}
	if first.TimeCtrlRaw != "40/90 + 30" {
		t.Errorf("Expected time control preserved, got '%s'", first.TimeCtrlRaw)
	}
	if first.RatedRaw != "FIDE rated" {
		t.Errorf("Expected rated text preserved, got '%s'", first.RatedRaw)
	}

	second := listings[1]
	if second.EndRaw != "" {
		t.Errorf("Single-day event should have empty end, got '%s'", second.EndRaw)
	}

	// Drained scan yields nothing.
	listings, more, err = scan.Next(context.Background())
	if err != nil || more || len(listings) != 0 {
		t.Errorf("Expected exhausted scan, got %d listings, more=%v, err=%v", len(listings), more, err)
	}
}

func TestRSSSourceFetchErrorEndsTheScan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	config := &sources.Config{
		Name:     "bundesland-calendar",
		Kind:     sources.KindRSS,
		BaseURL:  srv.URL,
		Settings: sources.ConfigSettings{Enabled: true, Timeout: 5},
	}
	source := NewRSSSource(config, srv.Client(), "test-agent")
	scan := source.Scan("de-be")

	_, more, err := scan.Next(context.Background())
	if err == nil {
		t.Fatal("Expected error from failing feed")
	}
	if more {
		t.Error("A feed has no further pages to advance to")
	}
}
