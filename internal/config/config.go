package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvPort              = "PORT"
	EnvDownstreamURL     = "LOVABLE_WEBHOOK_URL"
	EnvDownstreamToken   = "INCOME_STATEMENT_WEBHOOK_TOKEN"
	EnvMailgunSecret     = "MAILGUN_WEBHOOK_SECRET"
	EnvLogLevel          = "LOG_LEVEL"
	EnvLogFormat         = "LOG_FORMAT"
	EnvDeliveryTimeout   = "DELIVERY_TIMEOUT"
	EnvWorkerCount       = "WORKER_COUNT"
	EnvQueueCapacity     = "QUEUE_CAPACITY"
	EnvDrainTimeout      = "DRAIN_TIMEOUT"
	EnvMaxAttachmentSize = "MAX_ATTACHMENT_SIZE"
	EnvReplayTTL         = "REPLAY_TTL"
	EnvRateLimitRPS      = "RATE_LIMIT_RPS"
	EnvRateLimitBurst    = "RATE_LIMIT_BURST"
	EnvStatePath         = "STATE_PATH"
	EnvAccountRulesPath  = "ACCOUNT_RULES_PATH"
	EnvEnvFile           = "ENV_FILE"
)

// Config is the process configuration. Every string value has surrounding
// whitespace removed on load.
type Config struct {
	Port string

	// DownstreamURL and DownstreamToken address the ingestion endpoint.
	DownstreamURL   string
	DownstreamToken string

	// MailgunSecret is the webhook signing key shared with Mailgun.
	MailgunSecret string

	LogLevel  string
	LogFormat string

	DeliveryTimeout   time.Duration
	WorkerCount       int
	QueueCapacity     int
	DrainTimeout      time.Duration
	MaxAttachmentSize int64
	ReplayTTL         time.Duration
	RateLimitRPS      float64
	RateLimitBurst    int

	// StatePath enables the SQLite batch journal when non-empty.
	StatePath string

	// AccountRulesPath overrides the embedded account-type rule table.
	AccountRulesPath string

	// Warnings lists values that were ignored on load. The process still
	// starts; the affected setting reads as unconfigured.
	Warnings []string
}

// Defaults returns a Config with the documented defaults.
func Defaults() *Config {
	return &Config{
		Port:              "8000",
		LogLevel:          "info",
		LogFormat:         "json",
		DeliveryTimeout:   60 * time.Second,
		WorkerCount:       2,
		QueueCapacity:     32,
		DrainTimeout:      30 * time.Second,
		MaxAttachmentSize: 25 * 1024 * 1024,
		ReplayTTL:         15 * time.Minute,
		RateLimitRPS:      5,
		RateLimitBurst:    20,
	}
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load seeds the environment from envFile (if it exists; existing variables
// win) and then reads the configuration from the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %q: %w", envFile, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, applying defaults for unset values.
// Malformed optional values are errors; missing required values are not
// (see Missing).
func FromEnv(lookup LookupFunc) (*Config, error) {
	cfg := Defaults()
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvPort); ok {
		if _, err := strconv.ParseUint(v, 10, 16); err != nil {
			return nil, fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		cfg.Port = v
	}
	cfg.DownstreamURL, _ = get(EnvDownstreamURL)
	cfg.DownstreamToken, _ = get(EnvDownstreamToken)
	cfg.MailgunSecret, _ = get(EnvMailgunSecret)
	cfg.StatePath, _ = get(EnvStatePath)
	cfg.AccountRulesPath, _ = get(EnvAccountRulesPath)

	if v, ok := get(EnvLogLevel); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := get(EnvLogFormat); ok {
		cfg.LogFormat = strings.ToLower(v)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvDeliveryTimeout, &cfg.DeliveryTimeout},
		{EnvDrainTimeout, &cfg.DrainTimeout},
		{EnvReplayTTL, &cfg.ReplayTTL},
	}
	for _, d := range durations {
		v, ok := get(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s: invalid duration %q", d.key, v)
		}
		*d.dst = parsed
	}

	ints := []struct {
		key string
		dst *int
		min int
	}{
		{EnvWorkerCount, &cfg.WorkerCount, 1},
		{EnvQueueCapacity, &cfg.QueueCapacity, 1},
		{EnvRateLimitBurst, &cfg.RateLimitBurst, 0},
	}
	for _, n := range ints {
		v, ok := get(n.key)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < n.min {
			return nil, fmt.Errorf("%s: invalid integer %q (minimum %d)", n.key, v, n.min)
		}
		*n.dst = parsed
	}

	if v, ok := get(EnvRateLimitRPS); ok {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return nil, fmt.Errorf("%s: invalid rate %q", EnvRateLimitRPS, v)
		}
		cfg.RateLimitRPS = rps
	}

	if v, ok := get(EnvMaxAttachmentSize); ok {
		size, err := ParseSize(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvMaxAttachmentSize, err)
		}
		cfg.MaxAttachmentSize = size
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("log level must be one of: debug, info, warn, error (got %q)", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return fmt.Errorf("log format must be json or text (got %q)", cfg.LogFormat)
	}
	if cfg.DownstreamURL != "" &&
		!strings.HasPrefix(cfg.DownstreamURL, "https://") &&
		!strings.HasPrefix(cfg.DownstreamURL, "http://") {
		cfg.Warnings = append(cfg.Warnings,
			fmt.Sprintf("%s is not an http(s) URL, treating it as unset", EnvDownstreamURL))
		cfg.DownstreamURL = ""
	}
	return nil
}

// Configured reports which of the three required variables are non-empty.
type Configured struct {
	DownstreamURL   bool `json:"lovable_webhook_configured"`
	DownstreamToken bool `json:"webhook_token_configured"`
	MailgunSecret   bool `json:"mailgun_secret_configured"`
}

// Configured returns the presence flags for the required variables.
func (c *Config) Configured() Configured {
	return Configured{
		DownstreamURL:   c.DownstreamURL != "",
		DownstreamToken: c.DownstreamToken != "",
		MailgunSecret:   c.MailgunSecret != "",
	}
}

// Missing returns the names of required variables that are unset.
func (c *Config) Missing() []string {
	var missing []string
	if c.DownstreamURL == "" {
		missing = append(missing, EnvDownstreamURL)
	}
	if c.DownstreamToken == "" {
		missing = append(missing, EnvDownstreamToken)
	}
	if c.MailgunSecret == "" {
		missing = append(missing, EnvMailgunSecret)
	}
	return missing
}

// ListenAddr returns the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return ":" + c.Port
}
