package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	SourcesDir       string
	Port             string
	WorkerCount      int
	ScheduleInterval int
	RunBudget        int
	APIAccessKey     string

	// Geocoding configuration
	PreciseGeocoderURL string
	PreciseGeocoderKey string
	FreeGeocoderURL    string
	GeocoderInterval   int
	GeocoderTimeout    int
	ContactEmail       string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
