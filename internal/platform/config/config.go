package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultEnvFile     = ".env"
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 2
	defaultBackoffBase = 2 * time.Second
	defaultSessionFile = ".storefront/session.dat"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	API      APIConfig
	Session  SessionConfig
	Defaults Defaults
}

// APIConfig configures the commerce service client.
type APIConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

// SessionConfig locates and protects the local session file.
type SessionConfig struct {
	FilePath   string
	SigningKey string
}

// Defaults holds overridable business defaults, loadable from a YAML file.
type Defaults struct {
	DeliveryChargeInsideDhaka  int64    `yaml:"delivery_charge_inside_dhaka"`
	DeliveryChargeOutsideDhaka int64    `yaml:"delivery_charge_outside_dhaka"`
	PaymentMethods             []string `yaml:"payment_methods"`
}

// ValidationError reports the configuration fields that failed validation.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: invalid or missing fields: %s", strings.Join(e.fields, ", "))
}

// Fields lists the offending field names.
func (e *ValidationError) Fields() []string {
	dup := make([]string, len(e.fields))
	copy(dup, e.fields)
	return dup
}

// Load reads configuration from the environment, loading a .env file first
// when present, and merging an optional YAML defaults file referenced by
// STOREFRONT_CONFIG_FILE.
func Load() (Config, error) {
	_ = godotenv.Load(defaultEnvFile)

	cfg := Config{
		API: APIConfig{
			BaseURL:     strings.TrimRight(strings.TrimSpace(os.Getenv("STOREFRONT_API_BASE_URL")), "/"),
			Timeout:     durationEnv("STOREFRONT_HTTP_TIMEOUT", defaultTimeout),
			MaxRetries:  intEnv("STOREFRONT_MAX_RETRIES", defaultMaxRetries),
			BackoffBase: durationEnv("STOREFRONT_BACKOFF_BASE", defaultBackoffBase),
		},
		Session: SessionConfig{
			FilePath:   stringEnv("STOREFRONT_SESSION_FILE", defaultSessionFile),
			SigningKey: strings.TrimSpace(os.Getenv("STOREFRONT_SESSION_SIGNING_KEY")),
		},
		Defaults: Defaults{
			DeliveryChargeInsideDhaka:  60,
			DeliveryChargeOutsideDhaka: 120,
			PaymentMethods:             []string{"cod", "online"},
		},
	}

	if path := strings.TrimSpace(os.Getenv("STOREFRONT_CONFIG_FILE")); path != "" {
		if err := mergeDefaultsFile(&cfg.Defaults, path); err != nil {
			return Config{}, err
		}
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeDefaultsFile(defaults *Defaults, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read defaults file: %w", err)
	}
	var overrides Defaults
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return fmt.Errorf("config: parse defaults file: %w", err)
	}
	if overrides.DeliveryChargeInsideDhaka > 0 {
		defaults.DeliveryChargeInsideDhaka = overrides.DeliveryChargeInsideDhaka
	}
	if overrides.DeliveryChargeOutsideDhaka > 0 {
		defaults.DeliveryChargeOutsideDhaka = overrides.DeliveryChargeOutsideDhaka
	}
	if len(overrides.PaymentMethods) > 0 {
		defaults.PaymentMethods = overrides.PaymentMethods
	}
	return nil
}

func validate(cfg Config) error {
	var fields []string
	if cfg.API.BaseURL == "" {
		fields = append(fields, "STOREFRONT_API_BASE_URL")
	}
	if cfg.Session.SigningKey == "" {
		fields = append(fields, "STOREFRONT_SESSION_SIGNING_KEY")
	}
	if len(fields) == 0 {
		return nil
	}
	sort.Strings(fields)
	return &ValidationError{fields: fields}
}

func stringEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
