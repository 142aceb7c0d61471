package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the concierge service and its workers.
// Environment variables are parsed from the CONCIERGE_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Store driver: postgres or sqlite
	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"concierge.db"`

	// Search index (OpenSearch-compatible REST endpoint)
	SearchIndexURL      string `envconfig:"SEARCH_INDEX_URL" default:"http://localhost:9200"`
	SearchIndexName     string `envconfig:"SEARCH_INDEX_NAME" default:"restaurants"`
	SearchIndexUser     string `envconfig:"SEARCH_INDEX_USER" default:""`
	SearchIndexPassword string `envconfig:"SEARCH_INDEX_PASSWORD" default:""`

	// Mail API (SES-style HTTP endpoint)
	MailAPIURL  string `envconfig:"MAIL_API_URL" default:""`
	MailAPIKey  string `envconfig:"MAIL_API_KEY" default:""`
	MailSender  string `envconfig:"MAIL_SENDER" default:"Dining Concierge <concierge@example.com>"`
	MailSubject string `envconfig:"MAIL_SUBJECT" default:"DiningConcierge"`

	// Business search API used by ingestion
	BusinessAPIURL string `envconfig:"BUSINESS_API_URL" default:"https://api.yelp.com/v3"`
	BusinessAPIKey string `envconfig:"BUSINESS_API_KEY" default:""`

	// Dialog time zone used for "today" in date validation. Threaded into the
	// validator explicitly; never set process-wide.
	DialogTimeZone string `envconfig:"DIALOG_TIME_ZONE" default:"America/New_York"`

	// Worker tuning
	WorkerBatchSize       int           `envconfig:"WORKER_BATCH_SIZE" default:"10"`
	WorkerPollInterval    time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"2s"`
	QueueDedupWindow      time.Duration `envconfig:"QUEUE_DEDUP_WINDOW" default:"5m"`
	HealthIntervalSeconds int           `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeout    time.Duration `envconfig:"HEALTH_PROBE_TIMEOUT" default:"5s"`
}

// ResolveDefaults validates the selected drivers and fills derived values.
func (c *Config) ResolveDefaults() error {
	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("CONCIERGE_POSTGRES_DSN is required with DB_DRIVER=postgres")
	}
	if c.SearchIndexName == "" {
		return fmt.Errorf("CONCIERGE_SEARCH_INDEX_NAME must not be empty")
	}
	if c.WorkerBatchSize <= 0 {
		c.WorkerBatchSize = 10
	}
	if c.WorkerPollInterval <= 0 {
		c.WorkerPollInterval = 2 * time.Second
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: CONCIERGE_HTTP_PORT, CONCIERGE_POSTGRES_DSN.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CONCIERGE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("search_index_url", cfg.SearchIndexURL).
		Str("search_index", cfg.SearchIndexName).
		Str("dialog_time_zone", cfg.DialogTimeZone).
		Bool("mail_api_configured", cfg.MailAPIURL != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config suitable for unit tests.
func NewForTesting() *Config {
	cfg := &Config{
		Environment:        EnvTesting,
		HTTPPort:           8080,
		DBDriver:           "sqlite",
		SQLitePath:         ":memory:",
		SearchIndexURL:     "http://localhost:9200",
		SearchIndexName:    "restaurants",
		MailSender:         "Dining Concierge <concierge@example.test>",
		MailSubject:        "DiningConcierge",
		DialogTimeZone:     "America/New_York",
		WorkerBatchSize:    10,
		WorkerPollInterval: 2 * time.Second,
		QueueDedupWindow:   5 * time.Minute,
		HealthProbeTimeout: 5 * time.Second,
	}
	cfg.HealthIntervalSeconds = 30
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
