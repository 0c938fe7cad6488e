// Package config defines the YAML configuration of the tracing tools.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sirkon/tapegraph/internal/interp"
	"github.com/sirkon/tapegraph/internal/tracer"
)

// Config is the top-level configuration.
type Config struct {
	Trace  Trace  `yaml:"trace"`
	Interp Interp `yaml:"interp"`
	Log    Log    `yaml:"log"`
}

// Trace configures the dispatch policy.
type Trace struct {
	// MaxDepth is the nesting depth from which calls are recorded as
	// primitives instead of being traced.
	MaxDepth int `yaml:"max_depth"`

	// Primitives are function names always recorded as primitive calls.
	Primitives []string `yaml:"primitives"`
}

// Interp configures the interpreter.
type Interp struct {
	MaxSteps int `yaml:"max_steps"`
}

// Log configures logging.
type Log struct {
	Level  Level  `yaml:"level"`
	Format Format `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Trace: Trace{
			MaxDepth:   tracer.DefaultMaxDepth,
			Primitives: []string{},
		},
		Interp: Interp{
			MaxSteps: interp.DefaultMaxSteps,
		},
		Log: Log{
			Level:  LevelInfo,
			Format: FormatText,
		},
	}
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return c, nil
}

// Parse decodes the configuration, absent values keep their defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if c.Trace.Primitives == nil {
		c.Trace.Primitives = []string{}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Trace.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("trace.max_depth must not be negative, got %d", c.Trace.MaxDepth))
	}
	if c.Interp.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("interp.max_steps must be positive, got %d", c.Interp.MaxSteps))
	}
	for i, p := range c.Trace.Primitives {
		if p == "" {
			errs = append(errs, fmt.Errorf("trace.primitives[%d] is empty", i))
		}
	}

	return errors.Join(errs...)
}
