package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"tourmap_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"tourmap_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"tourmap" description:"Database name"`

	// Application configuration
	SourcesDir       string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	Port             string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount      int    `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of concurrent region scan workers"`
	ScheduleInterval int    `long:"schedule-interval" env:"SCHEDULE_INTERVAL" default:"0" description:"Internal run schedule interval in minutes (0 disables, runs trigger via HTTP only)"`
	RunBudget        int    `long:"run-budget" env:"RUN_BUDGET" default:"45" description:"Wall-clock budget for a single pipeline run in minutes"`
	APIAccessKey     string `long:"api-key" env:"API_ACCESS_KEY" description:"Access key for the trigger/ops API (required to start runs)"`

	// Geocoding configuration
	PreciseGeocoderURL string `long:"precise-geocoder-url" env:"PRECISE_GEOCODER_URL" default:"https://us1.locationiq.com/v1/search" description:"Precise (paid) geocoder endpoint"`
	PreciseGeocoderKey string `long:"precise-geocoder-key" env:"PRECISE_GEOCODER_KEY" description:"API key for the precise geocoder (empty disables the exact tier)"`
	FreeGeocoderURL    string `long:"free-geocoder-url" env:"FREE_GEOCODER_URL" default:"https://nominatim.openstreetmap.org/search" description:"Free public geocoder endpoint"`
	GeocoderInterval   int    `long:"geocoder-interval" env:"GEOCODER_INTERVAL" default:"1100" description:"Minimum interval between free geocoder calls in milliseconds"`
	GeocoderTimeout    int    `long:"geocoder-timeout" env:"GEOCODER_TIMEOUT" default:"10" description:"Timeout for geocoder HTTP calls in seconds"`
	ContactEmail       string `long:"contact-email" env:"CONTACT_EMAIL" description:"Contact email sent to the free geocoder per its usage policy"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Tourmap/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:             raw.DBHost,
		DBPort:             raw.DBPort,
		DBUser:             raw.DBUser,
		DBPassword:         raw.DBPassword,
		DBName:             raw.DBName,
		SourcesDir:         raw.SourcesDir,
		Port:               raw.Port,
		WorkerCount:        raw.WorkerCount,
		ScheduleInterval:   raw.ScheduleInterval,
		RunBudget:          raw.RunBudget,
		APIAccessKey:       raw.APIAccessKey,
		PreciseGeocoderURL: raw.PreciseGeocoderURL,
		PreciseGeocoderKey: raw.PreciseGeocoderKey,
		FreeGeocoderURL:    raw.FreeGeocoderURL,
		GeocoderInterval:   raw.GeocoderInterval,
		GeocoderTimeout:    raw.GeocoderTimeout,
		ContactEmail:       raw.ContactEmail,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
