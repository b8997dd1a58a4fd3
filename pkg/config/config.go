package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/plancore/pkg/descriptor"
	"github.com/openfroyo/plancore/pkg/director"
	"github.com/openfroyo/plancore/pkg/supply"
	"github.com/openfroyo/plancore/pkg/telemetry"
)

var validate = validator.New()

// Config is the core configuration of a plancore process.
type Config struct {
	// Logging configures the structured logger handed to score directors.
	Logging telemetry.LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus collection.
	Metrics telemetry.MetricsConfig `yaml:"metrics"`

	// Tracing configures spans around working solution resets and score calculations.
	Tracing telemetry.TracingConfig `yaml:"tracing"`

	// Supply configures the supply cache of every score director.
	Supply SupplyConfig `yaml:"supply"`

	// Domain is the descriptor table of the solution type. It is optional for
	// processes that bind their descriptors in code.
	Domain *descriptor.SolutionConfig `yaml:"domain" validate:"-"`
}

// SupplyConfig configures supply reclamation.
type SupplyConfig struct {
	// Reclamation is eager (drop at zero active demands) or deferred (keep until close).
	Reclamation supply.ReclamationPolicy `yaml:"reclamation" validate:"required,oneof=eager deferred"`
}

// Default returns the configuration used when a file leaves a field unset.
func Default() *Config {
	tc := telemetry.DefaultConfig()
	return &Config{
		Logging: tc.Logging,
		Metrics: tc.Metrics,
		Tracing: tc.Tracing,
		Supply:  SupplyConfig{Reclamation: supply.ReclamationEager},
	}
}

// Load reads and validates the YAML file at path. Fields the file omits keep
// their Default values, and unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML configuration content.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints, the telemetry settings and, when present,
// the domain descriptor table. Domain errors are returned as ConfigurationErrors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("invalid tracing config: %w", err)
	}
	if c.Domain != nil {
		return descriptor.ValidateConfig(c.Domain)
	}
	return nil
}

// Telemetry returns the logging, metrics and tracing sections as a telemetry.Config.
func (c *Config) Telemetry() *telemetry.Config {
	return &telemetry.Config{Logging: c.Logging, Metrics: c.Metrics, Tracing: c.Tracing}
}

// DirectorOptions returns the score director options this configuration selects,
// wired to tel. A nil tel leaves logging, metrics and tracing off.
func (c *Config) DirectorOptions(tel *telemetry.Telemetry) []director.Option {
	opts := []director.Option{director.WithReclamation(c.Supply.Reclamation)}
	if tel == nil {
		return opts
	}
	return append(opts,
		director.WithLogger(tel.Logger.NewComponentLogger("planning").Zerolog()),
		director.WithMetrics(tel.Metrics),
		director.WithTracer(tel.Tracer),
	)
}
