package bootstrap

import (
	"github.com/skillsenselab/regkit/config"
	"github.com/skillsenselab/regkit/lifecycle"
	"github.com/skillsenselab/regkit/logger"
	"github.com/skillsenselab/regkit/validation"
	"github.com/skillsenselab/regkit/version"
)

// ObservabilityConfig controls the OpenTelemetry providers.
type ObservabilityConfig struct {
	// TracesEnabled turns the OTLP trace exporter on.
	TracesEnabled bool `yaml:"traces_enabled" mapstructure:"traces_enabled"`

	// MetricsEnabled turns the OTLP metric exporter on.
	MetricsEnabled bool `yaml:"metrics_enabled" mapstructure:"metrics_enabled"`

	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// Insecure allows plaintext OTLP connections.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`

	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// Config is the top-level configuration of a regkit application.
type Config struct {
	// Name is the service name, used for logging and registration.
	Name string `yaml:"name" mapstructure:"name" validate:"required"`

	// Version of the service. Defaults to the build version.
	Version string `yaml:"version" mapstructure:"version"`

	// Environment is the deployment environment (development, staging,
	// production).
	Environment string `yaml:"environment" mapstructure:"environment"`

	// Logging configures the structured logger.
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`

	// Registration configures the service registration lifecycle. Its fields
	// are validated by the lifecycle itself, and only when registration is
	// enabled.
	Registration lifecycle.Options `yaml:"registration" mapstructure:"registration" validate:"-"`

	// Observability configures tracing and metrics.
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills zero fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()
	c.Registration.Config.ApplyDefaults()
	if c.Observability.Endpoint == "" {
		c.Observability.Endpoint = "localhost:4318"
	}
	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Load reads the application configuration from the standard config.yml and
// .env locations for serviceName, applies defaults, and validates it.
func Load(serviceName string, opts ...config.LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	if cfg.Registration.ServiceName == "" {
		cfg.Registration.ServiceName = cfg.Name
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
