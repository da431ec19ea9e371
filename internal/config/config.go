package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. Constructed once in main
// and passed by reference; nothing reads the environment later.
type Config struct {
	AdminUser     string
	AdminPassword string

	DatabaseURL string

	ListenAddr string

	// BootstrapAPIKey, if set, is created on startup and associated with
	// the bootstrap admin user so the driver's client app has a stable
	// key without a manual provisioning step.
	BootstrapAPIKey string

	// Timezone is the location used for all calendar bucketing
	// (day-of-week, hour-of-day, week start, "today"). Defaults to the
	// process-local zone.
	Timezone *time.Location

	// PollInterval is how often a subscription re-fetches a user's tips
	// to pick up writes made from other sessions.
	PollInterval time.Duration

	// GenerationURL is the text-completion endpoint used for pep talks
	// and weekly insights. If empty, insight endpoints return the
	// apology message instead of calling out.
	GenerationURL    string
	GenerationAPIKey string
	GenerationModel  string
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		AdminUser:        getenv("APP_ADMIN_USER", "admin"),
		AdminPassword:    getenv("APP_ADMIN_PASSWORD", "changeme"),
		DatabaseURL:      os.Getenv("APP_DATABASE_URL"),
		ListenAddr:       getenv("APP_LISTEN_ADDR", ":8080"),
		BootstrapAPIKey:  getenv("APP_BOOTSTRAP_API_KEY", ""),
		Timezone:         time.Local,
		PollInterval:     30 * time.Second,
		GenerationURL:    getenv("APP_GENERATION_URL", ""),
		GenerationAPIKey: getenv("APP_GENERATION_API_KEY", ""),
		GenerationModel:  getenv("APP_GENERATION_MODEL", "gpt-4o-mini"),
	}

	if v := os.Getenv("APP_TIMEZONE"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			log.Printf("warning: invalid APP_TIMEZONE %q, using local zone: %v", v, err)
		} else {
			cfg.Timezone = loc
		}
	}

	if v := os.Getenv("APP_POLL_INTERVAL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.PollInterval = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
