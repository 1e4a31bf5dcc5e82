// Package config loads estimation jobs from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mc-integrator/logger"
	"mc-integrator/region"
	"mc-integrator/sampler"
)

// Errors returned by the config package.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("config: invalid configuration")
	// ErrConfigNotFound is returned when the config file is not found.
	ErrConfigNotFound = errors.New("config: configuration file not found")
)

// Default values applied by ApplyDefaults.
const (
	DefaultSamples    = 100000
	DefaultReplicates = 10
)

// Config describes one integration job.
type Config struct {
	// Name is a descriptive name for this job.
	Name string `yaml:"name" json:"name"`

	// Region lists one [lower, upper] pair per dimension.
	Region [][]float64 `yaml:"region" json:"region"`

	// Function is the integrand, see package expr for the syntax.
	Function string `yaml:"function" json:"function"`

	// Samples is the number of points drawn by an estimation.
	// Default: 100000
	Samples int `yaml:"samples,omitempty" json:"samples,omitempty"`

	// Precision is the number of fractional digits sampled coordinates are
	// rounded to. A negative value disables rounding.
	// Default: 2
	Precision *int `yaml:"precision,omitempty" json:"precision,omitempty"`

	// Seed makes runs reproducible. Unset means a fresh random seed.
	Seed *uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`

	// Expected is the analytic value of the integral, if known.
	Expected *float64 `yaml:"expected,omitempty" json:"expected,omitempty"`

	// Study configures convergence studies.
	Study StudyConfig `yaml:"study,omitempty" json:"study,omitempty"`

	// Logging configures the logger.
	Logging LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`
}

// StudyConfig configures a convergence study.
type StudyConfig struct {
	// SampleCounts are the sample sizes studied, in order.
	// Default: [samples/100, samples/10, samples]
	SampleCounts []int `yaml:"sampleCounts,omitempty" json:"sampleCounts,omitempty"`

	// Replicates is the number of independent runs per sample size.
	// Default: 10
	Replicates int `yaml:"replicates,omitempty" json:"replicates,omitempty"`

	// Workers bounds the number of concurrent runs. Zero means one per CPU.
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`
}

// LoggingConfig mirrors logger.Config.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Load reads, defaults and validates the job file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Samples == 0 {
		c.Samples = DefaultSamples
	}
	if c.Precision == nil {
		p := sampler.DefaultPrecision
		c.Precision = &p
	}
	if len(c.Study.SampleCounts) == 0 {
		for _, n := range []int{c.Samples / 100, c.Samples / 10, c.Samples} {
			if n >= 2 {
				c.Study.SampleCounts = append(c.Study.SampleCounts, n)
			}
		}
	}
	if c.Study.Replicates == 0 {
		c.Study.Replicates = DefaultReplicates
	}

	defaults := logger.DefaultConfig()
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Format
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaults.Output
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.ToRegion(); err != nil {
		errs = append(errs, err)
	}
	if c.Function == "" {
		errs = append(errs, errors.New("function is required"))
	}
	if c.Samples < 2 {
		errs = append(errs, fmt.Errorf("samples must be at least 2, got %d", c.Samples))
	}
	for _, n := range c.Study.SampleCounts {
		if n < 2 {
			errs = append(errs, fmt.Errorf("study sample counts must be at least 2, got %d", n))
		}
	}
	if c.Study.Replicates < 2 {
		errs = append(errs, fmt.Errorf("study replicates must be at least 2, got %d", c.Study.Replicates))
	}
	if c.Study.Workers < 0 {
		errs = append(errs, fmt.Errorf("study workers must not be negative, got %d", c.Study.Workers))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ToRegion converts the configured pairs into a validated region.
func (c *Config) ToRegion() (region.Region, error) {
	r := make(region.Region, 0, len(c.Region))
	for i, pair := range c.Region {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: dimension %d needs [lower, upper], got %v", region.ErrInvalidRegion, i, pair)
		}
		r = append(r, region.Bounds{Lower: pair[0], Upper: pair[1]})
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// LoggerConfig returns the logging section as a logger configuration.
func (c *Config) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Output = c.Logging.Output
	return cfg
}
