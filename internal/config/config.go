// Package config provides the configuration structure for the speechify-service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override file configuration.
const (
	EnvSpeechifyAPIKey = "SPEECHIFY_API_KEY"
	EnvBucketName      = "GCS_BUCKET_NAME"
	EnvStorageBackend  = "STORAGE_BACKEND"
)

// Storage backends.
const (
	BackendGCS  = "gcs"
	BackendS3   = "s3"
	BackendNATS = "nats"
)

const defaultTimeoutSeconds = 60

// Placeholder values shipped in example env files; they count as unset.
const (
	placeholderAPIKey = "your_speechify_api_key_here"
	placeholderBucket = "your_gcs_bucket_name_here"
)

var (
	// ErrAPIKeyMissing indicates that no Speechify API key is configured.
	ErrAPIKeyMissing = errors.New("speechify api key is not configured")
	// ErrUnknownBackend indicates an unsupported storage backend.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrPublicBaseURLRequired indicates a backend that cannot derive
	// public URLs on its own was configured without public_base_url.
	ErrPublicBaseURLRequired = errors.New("storage public_base_url is required for this backend")
)

// SpeechifyConfig holds the Speechify API settings.
type SpeechifyConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// S3Config holds the settings used when the backend is "s3".
type S3Config struct {
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
}

// StorageConfig selects and configures the object storage backend.
type StorageConfig struct {
	Backend       string   `toml:"backend"`
	Bucket        string   `toml:"bucket"`
	PublicBaseURL string   `toml:"public_base_url"`
	S3            S3Config `toml:"s3"`
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                   string `toml:"url"`
	Subject               string `toml:"subject"`
	TextObjectStoreBucket string `toml:"text_object_store_bucket"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Speechify SpeechifyConfig `toml:"speechify"`
	Storage   StorageConfig   `toml:"storage"`
	NATS      NATSConfig      `toml:"nats"`
	Paths     PathsConfig     `toml:"paths"`
}

// Load loads the configuration through the central configurator and applies
// environment overrides.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyEnv(os.LookupEnv)
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadFromFile reads a TOML file and applies environment overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	cfg.ApplyEnv(os.LookupEnv)

	return cfg, nil
}

// Parse decodes TOML data and fills defaults. No environment is consulted.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	err := toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal TOML: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// FromEnv builds a configuration from environment variables alone.
func FromEnv() *Config {
	var cfg Config

	cfg.ApplyEnv(os.LookupEnv)
	cfg.applyDefaults()

	return &cfg
}

// ApplyEnv overrides fields with the non-empty, non-placeholder variables
// lookup reports.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if value, ok := lookupSet(lookup, EnvSpeechifyAPIKey); ok {
		c.Speechify.APIKey = value
	}

	if value, ok := lookupSet(lookup, EnvBucketName); ok {
		c.Storage.Bucket = value
	}

	if value, ok := lookupSet(lookup, EnvStorageBackend); ok {
		c.Storage.Backend = strings.ToLower(value)
	}

	if IsPlaceholder(c.Speechify.APIKey) {
		c.Speechify.APIKey = ""
	}

	if IsPlaceholder(c.Storage.Bucket) {
		c.Storage.Bucket = ""
	}
}

// Validate checks the settings required to talk to the provider. A missing
// bucket is tolerated; uploads fail later instead.
func (c *Config) Validate() error {
	if c.Speechify.APIKey == "" {
		return ErrAPIKeyMissing
	}

	return c.Storage.Validate()
}

// Validate checks that the backend is known and can produce public URLs.
func (s StorageConfig) Validate() error {
	switch s.Backend {
	case BackendGCS, BackendS3:
		return nil
	case BackendNATS:
		if s.PublicBaseURL == "" {
			return fmt.Errorf("%w: '%s'", ErrPublicBaseURLRequired, s.Backend)
		}

		return nil
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownBackend, s.Backend)
	}
}

// Timeout is the HTTP timeout for Speechify requests.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Speechify.TimeoutSeconds) * time.Second
}

// IsPlaceholder reports whether value is a documented placeholder.
func IsPlaceholder(value string) bool {
	return value == placeholderAPIKey || value == placeholderBucket
}

func (c *Config) applyDefaults() {
	if c.Speechify.TimeoutSeconds <= 0 {
		c.Speechify.TimeoutSeconds = defaultTimeoutSeconds
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendGCS
	}

	if c.Paths.BaseLogsDir == "" {
		c.Paths.BaseLogsDir = os.TempDir()
	}
}

func lookupSet(lookup func(string) (string, bool), key string) (string, bool) {
	value, ok := lookup(key)
	if !ok || value == "" {
		return "", false
	}

	return value, true
}
