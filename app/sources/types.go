package sources

// Source kinds supported by the crawler.
const (
	KindHTML = "html"
	KindRSS  = "rss"
)

// Region tiers with distinct listing targets.
const (
	TierTop   = "top"
	TierOther = "other"
)

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Kind     string         `yaml:"kind"`
	BaseURL  string         `yaml:"base_url"`
	Settings ConfigSettings `yaml:"settings"`
	Regions  []Region       `yaml:"regions"`
}

type ConfigSettings struct {
	Enabled  bool `yaml:"enabled"`
	Timeout  int  `yaml:"timeout"`   // seconds, per page fetch
	MaxPages int  `yaml:"max_pages"` // hard cap on pages per region scan
	PageSize int  `yaml:"page_size"` // listings per page the source serves
}

// Region is one jurisdiction a source is crawled for.
type Region struct {
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	Country string `yaml:"country"` // ISO 3166-1 alpha-2
	State   string `yaml:"state"`
	Tier    string `yaml:"tier"`
	Target  int    `yaml:"target"` // listings wanted per run; 0 uses the tier default
}
