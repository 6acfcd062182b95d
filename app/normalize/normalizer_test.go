package normalize

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/openchess/tourmap/app/crawl"
	"github.com/openchess/tourmap/app/sources"
)

var testRegion = sources.Region{
	Code:    "us-ny",
	Name:    "New York",
	Country: "US",
	State:   "NY",
	Tier:    sources.TierTop,
	Target:  100,
}

func sampleListing() crawl.RawListing {
	return crawl.RawListing{
		SourceID:    "ev-1001",
		Name:        "Manhattan Open 2026",
		URL:         "https://chessevents.example.com/events/ev-1001",
		StartRaw:    "2026-09-12",
		EndRaw:      "2026-09-14",
		LocationRaw: "New York, NY, US",
		VenueRaw:    "235 W 46th St, New York, NY",
		Organizer:   "Marshall Chess Club",
		CategoryRaw: "Classical",
		TimeCtrlRaw: "40/90 + 30",
		RoundsRaw:   "7",
		RatedRaw:    "FIDE rated",
	}
}

func TestNormalizerRun(t *testing.T) {
	n := NewNormalizer()

	draft, err := n.Run(sampleListing(), "chessevents", testRegion)
	if err != nil {
		t.Fatal(err)
	}

	if draft.Source != "chessevents" {
		t.Errorf("Expected source 'chessevents', got '%s'", draft.Source)
	}
	if draft.ExternalRef != "ev-1001" {
		t.Errorf("Expected external ref from source id, got '%s'", draft.ExternalRef)
	}
	if !draft.StartDate.Equal(time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected start date 2026-09-12, got %v", draft.StartDate)
	}
	if draft.EndDate == nil || !draft.EndDate.Equal(time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected end date 2026-09-14, got %v", draft.EndDate)
	}
	if draft.Category != "classical" {
		t.Errorf("Expected category 'classical', got '%s'", draft.Category)
	}
	if !draft.Rated {
		t.Error("Expected 'FIDE rated' to map to rated")
	}
	if draft.Rounds != 7 {
		t.Errorf("Expected 7 rounds, got %d", draft.Rounds)
	}
	if draft.Location.City != "New York" || draft.Location.State != "NY" || draft.Location.Country != "US" {
		t.Errorf("Unexpected location split: %+v", draft.Location)
	}
	if draft.Location.Raw != "New York, NY, US" {
		t.Errorf("Location free text must be preserved verbatim, got '%s'", draft.Location.Raw)
	}
	if draft.Location.Address != "235 W 46th St, New York, NY" {
		t.Errorf("Expected venue address carried, got '%s'", draft.Location.Address)
	}
}

func TestNormalizerIsDeterministic(t *testing.T) {
	n := NewNormalizer()
	raw := sampleListing()

	first, err := n.Run(raw, "chessevents", testRegion)
	if err != nil {
		t.Fatal(err)
	}
	second, err := n.Run(raw, "chessevents", testRegion)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Normalization must be deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestNormalizerRejectsUnparseableStartDate(t *testing.T) {
	n := NewNormalizer()
	raw := sampleListing()
	raw.StartRaw = "sometime next autumn"

	_, err := n.Run(raw, "chessevents", testRegion)
	if !errors.Is(err, ErrUnparseableDate) {
		t.Errorf("Expected ErrUnparseableDate, got %v", err)
	}

	raw.StartRaw = ""
	_, err = n.Run(raw, "chessevents", testRegion)
	if !errors.Is(err, ErrUnparseableDate) {
		t.Errorf("Expected ErrUnparseableDate for empty date, got %v", err)
	}
}

func TestNormalizerRejectsMissingName(t *testing.T) {
	n := NewNormalizer()
	raw := sampleListing()
	raw.Name = "   "

	_, err := n.Run(raw, "chessevents", testRegion)
	if !errors.Is(err, ErrMissingName) {
		t.Errorf("Expected ErrMissingName, got %v", err)
	}
}

func TestNormalizerDropsInvertedEndDate(t *testing.T) {
	n := NewNormalizer()
	raw := sampleListing()
	raw.EndRaw = "2026-09-01" // before start

	draft, err := n.Run(raw, "chessevents", testRegion)
	if err != nil {
		t.Fatal(err)
	}
	if draft.EndDate != nil {
		t.Errorf("Inverted end date must be dropped, got %v", draft.EndDate)
	}
}

func TestExternalRefFallsBackToURLHash(t *testing.T) {
	n := NewNormalizer()
	raw := sampleListing()
	raw.SourceID = ""

	first, err := n.Run(raw, "chessevents", testRegion)
	if err != nil {
		t.Fatal(err)
	}
	second, err := n.Run(raw, "chessevents", testRegion)
	if err != nil {
		t.Fatal(err)
	}

	if first.ExternalRef == "" {
		t.Fatal("Expected derived external ref")
	}
	if first.ExternalRef != second.ExternalRef {
		t.Error("URL-derived external ref must be stable across runs")
	}

	raw.URL = ""
	if _, err := n.Run(raw, "chessevents", testRegion); !errors.Is(err, ErrMissingReference) {
		t.Errorf("Expected ErrMissingReference, got %v", err)
	}
}

func TestMapCategory(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Classical", "classical"},
		{"standard", "classical"},
		{"RAPID", "rapid"},
		{"Blitz", "blitz"},
		{"youth", "scholastic"},
		{"swiss", "open"},
		{"quantum chess", "open"}, // outside the vocabulary
		{"", "open"},
	}

	for _, tc := range cases {
		if got := mapCategory(tc.input); got != tc.want {
			t.Errorf("mapCategory(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMapRated(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"yes", true},
		{"FIDE rated", true},
		{"USCF", true},
		{"unrated", false},
		{"no", false},
		{"probably", false}, // outside the vocabulary
		{"", false},
	}

	for _, tc := range cases {
		if got := mapRated(tc.input); got != tc.want {
			t.Errorf("mapRated(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParseLocationFallsBackToRegion(t *testing.T) {
	n := NewNormalizer()
	raw := sampleListing()
	raw.LocationRaw = "Albany"

	draft, err := n.Run(raw, "chessevents", testRegion)
	if err != nil {
		t.Fatal(err)
	}
	if draft.Location.City != "Albany" {
		t.Errorf("Expected city 'Albany', got '%s'", draft.Location.City)
	}
	if draft.Location.Country != "US" || draft.Location.State != "NY" {
		t.Errorf("Expected region fallback for state/country, got %+v", draft.Location)
	}
}

func TestParseLocationCityCountry(t *testing.T) {
	n := NewNormalizer()
	raw := sampleListing()
	raw.LocationRaw = "Reykjavik, IS"

	draft, err := n.Run(raw, "chessevents", testRegion)
	if err != nil {
		t.Fatal(err)
	}
	if draft.Location.City != "Reykjavik" || draft.Location.Country != "IS" {
		t.Errorf("Expected city/country split, got %+v", draft.Location)
	}
}

func TestParseLocationStateAbbreviationIsNotACountry(t *testing.T) {
	n := NewNormalizer()
	raw := sampleListing()
	raw.LocationRaw = "Dallas, TX"

	draft, err := n.Run(raw, "chessevents", testRegion)
	if err != nil {
		t.Fatal(err)
	}
	if draft.Location.City != "Dallas" {
		t.Errorf("Expected city 'Dallas', got '%s'", draft.Location.City)
	}
	if draft.Location.State != "TX" {
		t.Errorf("Expected state 'TX', got '%s'", draft.Location.State)
	}
	if draft.Location.Country != "US" {
		t.Errorf("Expected region country 'US' to survive, got '%s'", draft.Location.Country)
	}
}

func TestIsCountryCode(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"US", true},
		{"is", true},
		{"IN", true},
		{"TX", false},
		{"NJ", false},
		{"USA", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := isCountryCode(tc.input); got != tc.want {
			t.Errorf("isCountryCode(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParseDateLayouts(t *testing.T) {
	cases := []string{
		"2026-09-12",
		"09/12/2026",
		"12.09.2026",
		"Sep 12, 2026",
		"September 12, 2026",
		"12 Sep 2026",
	}

	for _, input := range cases {
		got, err := parseDate(input)
		if err != nil {
			t.Errorf("parseDate(%q) failed: %v", input, err)
			continue
		}
		if got.Year() != 2026 || got.Month() != time.September || got.Day() != 12 {
			t.Errorf("parseDate(%q) = %v, want 2026-09-12", input, got)
		}
	}
}
