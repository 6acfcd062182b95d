package geo

import "strings"

// Centroids is the static last-resort coordinate table. Country entries are
// keyed by ISO 3166-1 alpha-2 code; state entries by "CC-STATE". An entry
// here trades accuracy for coverage and is always tagged region-centroid.
type Centroids struct {
	table map[string]Point
}

func NewCentroids() *Centroids {
	return &Centroids{table: centroidTable}
}

// Lookup returns the centroid for the given country and optional state.
// The state entry wins when present; the country entry is the fallback.
// State accepts a postal code or a full name; names are mapped to codes
// before the table is consulted.
func (c *Centroids) Lookup(country, state string) (Point, bool) {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		return Point{}, false
	}

	if state = strings.ToUpper(strings.TrimSpace(state)); state != "" {
		if code, ok := stateCodes[state]; ok {
			state = code
		}
		if p, ok := c.table[country+"-"+state]; ok {
			return p, true
		}
	}

	p, ok := c.table[country]
	return p, ok
}

// stateCodes maps full state names, as they appear in source region
// configuration and scraped location text, to the postal codes the
// centroid table is keyed by.
var stateCodes = map[string]string{
	"NEW YORK":       "NY",
	"NEW JERSEY":     "NJ",
	"PENNSYLVANIA":   "PA",
	"MASSACHUSETTS":  "MA",
	"CONNECTICUT":    "CT",
	"VIRGINIA":       "VA",
	"MARYLAND":       "MD",
	"FLORIDA":        "FL",
	"GEORGIA":        "GA",
	"NORTH CAROLINA": "NC",
	"TENNESSEE":      "TN",
	"OHIO":           "OH",
	"MICHIGAN":       "MI",
	"ILLINOIS":       "IL",
	"MINNESOTA":      "MN",
	"WISCONSIN":      "WI",
	"MISSOURI":       "MO",
	"TEXAS":          "TX",
	"ARIZONA":        "AZ",
	"COLORADO":       "CO",
	"WASHINGTON":     "WA",
	"OREGON":         "OR",
	"CALIFORNIA":     "CA",
	"NEVADA":         "NV",
	"UTAH":           "UT",

	"KARNATAKA":     "KA",
	"MAHARASHTRA":   "MH",
	"TAMIL NADU":    "TN",
	"DELHI":         "DL",
	"WEST BENGAL":   "WB",
	"GUJARAT":       "GJ",
	"KERALA":        "KL",
	"TELANGANA":     "TG",
	"UTTAR PRADESH": "UP",
	"RAJASTHAN":     "RJ",
}

var centroidTable = map[string]Point{
	// Countries
	"US": {39.8283, -98.5795},
	"CA": {56.1304, -106.3468},
	"MX": {23.6345, -102.5528},
	"BR": {-14.2350, -51.9253},
	"AR": {-38.4161, -63.6167},
	"GB": {55.3781, -3.4360},
	"IE": {53.4129, -8.2439},
	"FR": {46.2276, 2.2137},
	"DE": {51.1657, 10.4515},
	"ES": {40.4637, -3.7492},
	"PT": {39.3999, -8.2245},
	"IT": {41.8719, 12.5674},
	"NL": {52.1326, 5.2913},
	"BE": {50.5039, 4.4699},
	"CH": {46.8182, 8.2275},
	"AT": {47.5162, 14.5501},
	"PL": {51.9194, 19.1451},
	"CZ": {49.8175, 15.4730},
	"HU": {47.1625, 19.5033},
	"RO": {45.9432, 24.9668},
	"BG": {42.7339, 25.4858},
	"GR": {39.0742, 21.8243},
	"RS": {44.0165, 21.0059},
	"HR": {45.1000, 15.2000},
	"UA": {48.3794, 31.1656},
	"RU": {61.5240, 105.3188},
	"AM": {40.0691, 45.0382},
	"GE": {42.3154, 43.3569},
	"AZ": {40.1431, 47.5769},
	"KZ": {48.0196, 66.9237},
	"UZ": {41.3775, 64.5853},
	"TR": {38.9637, 35.2433},
	"IL": {31.0461, 34.8516},
	"IN": {20.5937, 78.9629},
	"CN": {35.8617, 104.1954},
	"JP": {36.2048, 138.2529},
	"KR": {35.9078, 127.7669},
	"VN": {14.0583, 108.2772},
	"PH": {12.8797, 121.7740},
	"ID": {-0.7893, 113.9213},
	"SG": {1.3521, 103.8198},
	"AU": {-25.2744, 133.7751},
	"NZ": {-40.9006, 174.8860},
	"ZA": {-30.5595, 22.9375},
	"EG": {26.8206, 30.8025},
	"NG": {9.0820, 8.6753},
	"NO": {60.4720, 8.4689},
	"SE": {60.1282, 18.6435},
	"FI": {61.9241, 25.7482},
	"DK": {56.2639, 9.5018},
	"IS": {64.9631, -19.0208},
	"LT": {55.1694, 23.8813},
	"LV": {56.8796, 24.6032},
	"EE": {58.5953, 25.0136},
	"CU": {21.5218, -77.7812},
	"PE": {-9.1900, -75.0152},
	"CL": {-35.6751, -71.5430},
	"CO": {4.5709, -74.2973},

	// US states with significant tournament volume
	"US-NY": {42.1657, -74.9481},
	"US-NJ": {40.2989, -74.5210},
	"US-PA": {40.5908, -77.2098},
	"US-MA": {42.2302, -71.5301},
	"US-CT": {41.5978, -72.7554},
	"US-VA": {37.7693, -78.1700},
	"US-MD": {39.0639, -76.8021},
	"US-FL": {27.7663, -81.6868},
	"US-GA": {33.0406, -83.6431},
	"US-NC": {35.6301, -79.8064},
	"US-TN": {35.7478, -86.6923},
	"US-OH": {40.3888, -82.7649},
	"US-MI": {43.3266, -84.5361},
	"US-IL": {40.3495, -88.9861},
	"US-MN": {45.6945, -93.9002},
	"US-WI": {44.2685, -89.6165},
	"US-MO": {38.4561, -92.2884},
	"US-TX": {31.0545, -97.5635},
	"US-AZ": {33.7298, -111.4312},
	"US-CO": {39.0598, -105.3111},
	"US-WA": {47.4009, -121.4905},
	"US-OR": {44.5720, -122.0709},
	"US-CA": {36.1162, -119.6816},
	"US-NV": {38.3135, -117.0554},
	"US-UT": {40.1500, -111.8624},

	// Indian states
	"IN-KA": {15.3173, 75.7139},
	"IN-MH": {19.7515, 75.7139},
	"IN-TN": {11.1271, 78.6569},
	"IN-DL": {28.7041, 77.1025},
	"IN-WB": {22.9868, 87.8550},
	"IN-GJ": {22.2587, 71.1924},
	"IN-KL": {10.8505, 76.2711},
	"IN-TG": {18.1124, 79.0193},
	"IN-UP": {26.8467, 80.9462},
	"IN-RJ": {27.0238, 74.2179},
}
