package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (SWAG_ prefix) or YAML config files.
type Config struct {
	Slot     string         `default:"swag-cart" yaml:"slot" validate:"required" usage:"Storage slot holding the cart"`
	Storage  StorageConfig  `yaml:"storage"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Quote    QuoteConfig    `yaml:"quote"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Health   HealthConfig   `yaml:"health"`
}

// StorageConfig selects where the cart is persisted.
type StorageConfig struct {
	Driver      string `default:"file" yaml:"driver" validate:"required,oneof=memory file postgres" usage:"Cart storage backend"`
	Dir         string `default:".swag-kart" yaml:"dir" validate:"required_if=Driver file" usage:"Directory for the file backend"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Driver postgres" usage:"PostgreSQL connection URL"`
}

// CatalogConfig lists the catalog source files.
type CatalogConfig struct {
	Files []string `yaml:"files" validate:"dive,required" usage:"Catalog JSON files, optionally gzipped"`
}

// QuoteConfig describes the issuer printed on exported quotes.
type QuoteConfig struct {
	Issuer   string        `default:"SWAG Chile" yaml:"issuer"`
	Phone    string        `yaml:"phone"`
	ValidFor time.Duration `default:"720h" yaml:"valid_for" validate:"min=1h"`
}

// AutosaveConfig bounds background saves.
type AutosaveConfig struct {
	Timeout time.Duration `default:"5s" yaml:"timeout" validate:"min=100ms" usage:"Per-save timeout"`
}

// HealthConfig controls background health checks.
type HealthConfig struct {
	Interval      time.Duration `default:"10s" yaml:"interval" validate:"min=1s"`
	MaxGoroutines int           `default:"10000" yaml:"max_goroutines" validate:"min=1"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then validates it.
func LoadConfig() (*Config, error) {
	return loadConfig("swag-kart.yaml", "/etc/swag-kart/config.yaml")
}

func loadConfig(files ...string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags: true,
		EnvPrefix: "SWAG",
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}

// formatFieldPath converts "Config.Storage.DatabaseURL" to "storage.databaseurl".
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}
