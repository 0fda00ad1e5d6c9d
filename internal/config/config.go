package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Cfg is the global configuration loaded at startup.
var Cfg Config

// Config holds all application configuration.
type Config struct {
	// Remote reference tables
	BaseRecsURL    string
	AgeRecsURL     string
	FitnessRecsURL string

	// Local reference tables
	DataDir string

	// HTTP
	HTTPTimeout time.Duration
	HTTPRetries int
	UserAgent   string

	// Reject data sources with integrity problems instead of skipping bad rows
	StrictData bool

	// Logging
	LogLevel  string
	LogFormat string

	// Sentry
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string

	// Report
	ReportDir string
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		DataDir:           "data",
		HTTPTimeout:       15 * time.Second,
		HTTPRetries:       2,
		UserAgent:         "HealthHelper/1.0",
		LogLevel:          "info",
		LogFormat:         "json",
		SentryEnvironment: "production",
		SentryRelease:     "healthhelper@1.0.0",
		ReportDir:         ".",
	}
}

// Load reads .env (if present) and populates Cfg from environment variables.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables")
	}

	d := Default()
	Cfg = Config{
		BaseRecsURL:    os.Getenv("BASE_RECS_URL"),
		AgeRecsURL:     os.Getenv("AGE_RECS_URL"),
		FitnessRecsURL: os.Getenv("FITNESS_RECS_URL"),

		DataDir: envOr("DATA_DIR", d.DataDir),

		HTTPTimeout: envDuration("HTTP_TIMEOUT", d.HTTPTimeout),
		HTTPRetries: envInt("HTTP_RETRIES", d.HTTPRetries),
		UserAgent:   envOr("USER_AGENT", d.UserAgent),

		StrictData: envBool("STRICT_DATA", false),

		LogLevel:  envOr("LOG_LEVEL", d.LogLevel),
		LogFormat: envOr("LOG_FORMAT", d.LogFormat),

		SentryDSN:         os.Getenv("SENTRY_DSN"),
		SentryEnvironment: envOr("SENTRY_ENVIRONMENT", d.SentryEnvironment),
		SentryRelease:     envOr("SENTRY_RELEASE", d.SentryRelease),

		ReportDir: envOr("REPORT_DIR", d.ReportDir),
	}

	log.Printf("config: loaded (data_dir=%s, remote=%v, strict=%v, sentry=%s)",
		Cfg.DataDir, Cfg.RemoteConfigured(), Cfg.StrictData, maskDSN(Cfg.SentryDSN))
}

// RemoteConfigured reports whether all three remote table URLs are set.
func (c Config) RemoteConfigured() bool {
	return c.BaseRecsURL != "" && c.AgeRecsURL != "" && c.FitnessRecsURL != ""
}

func maskDSN(dsn string) string {
	if dsn == "" {
		return "(disabled)"
	}
	return "(enabled)"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
