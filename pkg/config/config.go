// Package config holds the imdidiff configuration file model.
package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sdejongh/imdidiff/pkg/equivalence"
	"github.com/sdejongh/imdidiff/pkg/normalize"
	"github.com/sdejongh/imdidiff/pkg/ratelimit"
)

// Config represents the application configuration
type Config struct {
	Compare     CompareConfig      `yaml:"compare"`
	Normalize   NormalizeConfig    `yaml:"normalize"`
	Equivalence equivalence.Config `yaml:"equivalence"`
	Output      OutputConfig       `yaml:"output"`
	Logging     LoggingConfig      `yaml:"logging"`
	Metrics     MetricsConfig      `yaml:"metrics"`
	Exclude     ExcludeConfig      `yaml:"exclude"`
}

// CompareConfig holds corpus walk settings
type CompareConfig struct {
	Extensions        []string      `yaml:"extensions"`
	Timeout           time.Duration `yaml:"timeout"` // per file pair
	FailOnDifferences bool          `yaml:"fail_on_differences"`
	// ReadLimit caps the read rate over both trees, e.g. "10M", empty = unlimited
	ReadLimit string `yaml:"read_limit"`
}

// NormalizeConfig holds the normalization pipeline settings
type NormalizeConfig struct {
	normalize.Options `yaml:",inline"`

	Rules      string `yaml:"rules"`      // rule set file, empty = built-in IMDI rules
	Stylesheet string `yaml:"stylesheet"` // empty = no external transformation
	Command    string `yaml:"command"`    // transformation command template
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format         string `yaml:"format"` // "human", "json" or "progress"
	ShowSuppressed bool   `yaml:"show_suppressed"`
	DiffReport     string `yaml:"diff_report"`
	DiffFormat     string `yaml:"diff_format"` // "human" or "json"
	Quiet          bool   `yaml:"quiet"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format     string `yaml:"format"` // "text" or "json", file only
	File       string `yaml:"file"`   // empty = console only
	MaxSize    int64  `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	TextFile string `yaml:"textfile"` // Prometheus textfile, empty = disabled
}

// ExcludeConfig holds exclusion settings
type ExcludeConfig struct {
	File     string   `yaml:"file"`     // exclude list
	Patterns []string `yaml:"patterns"` // glob patterns over relative paths
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Compare: CompareConfig{
			Extensions: []string{".imdi"},
			Timeout:    60 * time.Second,
		},
		Normalize: NormalizeConfig{
			Options: normalize.DefaultOptions(),
			Command: normalize.DefaultCommandTemplate,
		},
		Equivalence: equivalence.DefaultConfig(),
		Output: OutputConfig{
			Format:     "human",
			DiffFormat: "human",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    10 * 1024 * 1024,
			MaxBackups: 3,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Compare.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if _, err := equivalence.New(c.Equivalence); err != nil {
		return err
	}
	return nil
}

// Validate validates the compare section
func (c *CompareConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Extensions, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Duration(0))),
		validation.Field(&c.ReadLimit, validation.By(func(value interface{}) error {
			_, err := ratelimit.ParseRate(value.(string))
			return err
		})),
	)
}

// Validate validates the output section
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.In("human", "json", "progress")),
		validation.Field(&c.DiffFormat, validation.In("human", "json")),
	)
}

// Validate validates the logging section
func (c *LoggingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&c.Format, validation.In("text", "json")),
		validation.Field(&c.MaxSize, validation.Min(int64(0))),
		validation.Field(&c.MaxBackups, validation.Min(0)),
	)
}
