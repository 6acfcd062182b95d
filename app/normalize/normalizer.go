package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/openchess/tourmap/app/crawl"
	"github.com/openchess/tourmap/app/geo"
	"github.com/openchess/tourmap/app/sources"
)

var (
	ErrMissingName      = errors.New("listing has no name")
	ErrMissingReference = errors.New("listing has neither a source id nor a URL")
	ErrUnparseableDate  = errors.New("listing date cannot be parsed")
)

// Draft is a canonical tournament before coordinate resolution. Identical
// raw input always yields an identical draft.
type Draft struct {
	Source      string
	ExternalRef string

	Name        string
	Category    string
	Rated       bool
	TimeControl string
	Rounds      int
	Organizer   string

	StartDate time.Time
	EndDate   *time.Time

	Location  geo.Location
	SourceURL string
}

// Normalizer converts raw crawler output into canonical drafts using fixed,
// enumerated mapping rules. It guesses nothing: unknown categories fall to
// "open", unknown rated markers to unrated, and an unparseable start date
// rejects the listing outright.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

func (n *Normalizer) Run(raw crawl.RawListing, sourceName string, region sources.Region) (Draft, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return Draft{}, ErrMissingName
	}

	ref, err := externalRef(raw)
	if err != nil {
		return Draft{}, err
	}

	start, err := parseDate(raw.StartRaw)
	if err != nil {
		return Draft{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw.StartRaw)
	}

	draft := Draft{
		Source:      sourceName,
		ExternalRef: ref,
		Name:        name,
		Category:    mapCategory(raw.CategoryRaw),
		Rated:       mapRated(raw.RatedRaw),
		TimeControl: strings.TrimSpace(raw.TimeCtrlRaw),
		Rounds:      parseRounds(raw.RoundsRaw),
		Organizer:   strings.TrimSpace(raw.Organizer),
		StartDate:   start,
		Location:    parseLocation(raw, region),
		SourceURL:   raw.URL,
	}

	// An end date is optional and never worth rejecting a listing over:
	// unparseable or inverted ends are dropped, keeping start <= end.
	if end, err := parseDate(raw.EndRaw); err == nil && !end.Before(start) {
		draft.EndDate = &end
	}

	return draft, nil
}

// externalRef is the dedup anchor: the source's own listing id when it has
// one, otherwise a stable hash of the listing URL.
func externalRef(raw crawl.RawListing) (string, error) {
	if id := strings.TrimSpace(raw.SourceID); id != "" {
		return id, nil
	}
	if raw.URL == "" {
		return "", ErrMissingReference
	}
	sum := sha256.Sum256([]byte(raw.URL))
	return "url-" + hex.EncodeToString(sum[:])[:16], nil
}

// dateLayouts covers the formats the configured sources are known to emit.
// dateparse handles the long tail.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// categorySynonyms is the complete category vocabulary. Lookup is by exact
// lower-cased token, never substring guessing.
var categorySynonyms = map[string]string{
	"classical":     "classical",
	"standard":      "classical",
	"classic":       "classical",
	"rapid":         "rapid",
	"schnellschach": "rapid",
	"blitz":         "blitz",
	"bullet":        "bullet",
	"scholastic":    "scholastic",
	"junior":        "scholastic",
	"youth":         "scholastic",
	"open":          "open",
	"swiss":         "open",
}

func mapCategory(raw string) string {
	if category, ok := categorySynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return category
	}
	return "open"
}

// ratedMarkers maps the rated field's vocabulary. Anything outside it is
// treated as unrated rather than guessed at.
var ratedMarkers = map[string]bool{
	"yes":        true,
	"true":       true,
	"rated":      true,
	"fide rated": true,
	"fide":       true,
	"uscf rated": true,
	"uscf":       true,
	"no":         false,
	"false":      false,
	"unrated":    false,
	"casual":     false,
}

func mapRated(raw string) bool {
	if rated, ok := ratedMarkers[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return rated
	}
	return false
}

func parseRounds(raw string) int {
	rounds, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || rounds < 0 {
		return 0
	}
	return rounds
}

// parseLocation splits the source's free-text location into resolver
// fields, falling back to the region's jurisdiction for whatever the text
// omits. The raw text is preserved verbatim alongside the split.
func parseLocation(raw crawl.RawListing, region sources.Region) geo.Location {
	loc := geo.Location{
		Address: strings.TrimSpace(raw.VenueRaw),
		Raw:     strings.TrimSpace(raw.LocationRaw),
		State:   region.State,
		Country: strings.ToUpper(region.Country),
	}

	parts := strings.Split(loc.Raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 1:
		loc.City = parts[0]
	case 2:
		loc.City = parts[0]
		if isCountryCode(parts[1]) {
			loc.Country = strings.ToUpper(parts[1])
		} else {
			loc.State = parts[1]
		}
	default:
		loc.City = parts[0]
		loc.State = parts[1]
		if isCountryCode(parts[len(parts)-1]) {
			loc.Country = strings.ToUpper(parts[len(parts)-1])
		}
	}

	return loc
}

func isCountryCode(s string) bool {
	_, ok := isoCountries[strings.ToUpper(s)]
	return ok
}

// isoCountries is the ISO 3166-1 alpha-2 assignment table. Two-letter
// tokens outside it, such as US state abbreviations like TX or NJ, are
// classified as states and leave the region's country in place.
var isoCountries = map[string]struct{}{
	"AD": {}, "AE": {}, "AF": {}, "AG": {}, "AI": {}, "AL": {}, "AM": {},
	"AO": {}, "AQ": {}, "AR": {}, "AS": {}, "AT": {}, "AU": {}, "AW": {},
	"AX": {}, "AZ": {}, "BA": {}, "BB": {}, "BD": {}, "BE": {}, "BF": {},
	"BG": {}, "BH": {}, "BI": {}, "BJ": {}, "BL": {}, "BM": {}, "BN": {},
	"BO": {}, "BQ": {}, "BR": {}, "BS": {}, "BT": {}, "BV": {}, "BW": {},
	"BY": {}, "BZ": {}, "CA": {}, "CC": {}, "CD": {}, "CF": {}, "CG": {},
	"CH": {}, "CI": {}, "CK": {}, "CL": {}, "CM": {}, "CN": {}, "CO": {},
	"CR": {}, "CU": {}, "CV": {}, "CW": {}, "CX": {}, "CY": {}, "CZ": {},
	"DE": {}, "DJ": {}, "DK": {}, "DM": {}, "DO": {}, "DZ": {}, "EC": {},
	"EE": {}, "EG": {}, "EH": {}, "ER": {}, "ES": {}, "ET": {}, "FI": {},
	"FJ": {}, "FK": {}, "FM": {}, "FO": {}, "FR": {}, "GA": {}, "GB": {},
	"GD": {}, "GE": {}, "GF": {}, "GG": {}, "GH": {}, "GI": {}, "GL": {},
	"GM": {}, "GN": {}, "GP": {}, "GQ": {}, "GR": {}, "GS": {}, "GT": {},
	"GU": {}, "GW": {}, "GY": {}, "HK": {}, "HM": {}, "HN": {}, "HR": {},
	"HT": {}, "HU": {}, "ID": {}, "IE": {}, "IL": {}, "IM": {}, "IN": {},
	"IO": {}, "IQ": {}, "IR": {}, "IS": {}, "IT": {}, "JE": {}, "JM": {},
	"JO": {}, "JP": {}, "KE": {}, "KG": {}, "KH": {}, "KI": {}, "KM": {},
	"KN": {}, "KP": {}, "KR": {}, "KW": {}, "KY": {}, "KZ": {}, "LA": {},
	"LB": {}, "LC": {}, "LI": {}, "LK": {}, "LR": {}, "LS": {}, "LT": {},
	"LU": {}, "LV": {}, "LY": {}, "MA": {}, "MC": {}, "MD": {}, "ME": {},
	"MF": {}, "MG": {}, "MH": {}, "MK": {}, "ML": {}, "MM": {}, "MN": {},
	"MO": {}, "MP": {}, "MQ": {}, "MR": {}, "MS": {}, "MT": {}, "MU": {},
	"MV": {}, "MW": {}, "MX": {}, "MY": {}, "MZ": {}, "NA": {}, "NC": {},
	"NE": {}, "NF": {}, "NG": {}, "NI": {}, "NL": {}, "NO": {}, "NP": {},
	"NR": {}, "NU": {}, "NZ": {}, "OM": {}, "PA": {}, "PE": {}, "PF": {},
	"PG": {}, "PH": {}, "PK": {}, "PL": {}, "PM": {}, "PN": {}, "PR": {},
	"PS": {}, "PT": {}, "PW": {}, "PY": {}, "QA": {}, "RE": {}, "RO": {},
	"RS": {}, "RU": {}, "RW": {}, "SA": {}, "SB": {}, "SC": {}, "SD": {},
	"SE": {}, "SG": {}, "SH": {}, "SI": {}, "SJ": {}, "SK": {}, "SL": {},
	"SM": {}, "SN": {}, "SO": {}, "SR": {}, "SS": {}, "ST": {}, "SV": {},
	"SX": {}, "SY": {}, "SZ": {}, "TC": {}, "TD": {}, "TF": {}, "TG": {},
	"TH": {}, "TJ": {}, "TK": {}, "TL": {}, "TM": {}, "TN": {}, "TO": {},
	"TR": {}, "TT": {}, "TV": {}, "TW": {}, "TZ": {}, "UA": {}, "UG": {},
	"UM": {}, "US": {}, "UY": {}, "UZ": {}, "VA": {}, "VC": {}, "VE": {},
	"VG": {}, "VI": {}, "VN": {}, "VU": {}, "WF": {}, "WS": {}, "YE": {},
	"YT": {}, "ZA": {}, "ZM": {}, "ZW": {},
}
