// Package config loads runtime configuration for the spindle CLI.
//
// Configuration comes from a YAML file plus SPINDLE_* environment
// overrides, resolved through viper. The loaded Config translates into
// executor options.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/spindle/internal/executor"
)

// Config is the runtime configuration of a spindle process.
type Config struct {
	// Capacity is the executor handle-table capacity.
	Capacity int `mapstructure:"capacity"`

	// Timeout is the wait timeout per cycle.
	Timeout time.Duration `mapstructure:"timeout"`

	// Semantics is "rclcpp" or "let".
	Semantics string `mapstructure:"semantics"`

	// Trigger is "any", "all" or "always".
	Trigger string `mapstructure:"trigger"`

	// Period is the spin period of the demo loop.
	Period time.Duration `mapstructure:"period"`

	// Cycles bounds the demo run; 0 spins until interrupted.
	Cycles int `mapstructure:"cycles"`

	// Journal is the path of the SQLite trace journal; empty disables
	// journaling.
	Journal string `mapstructure:"journal"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Capacity:  8,
		Timeout:   executor.DefaultTimeout,
		Semantics: "rclcpp",
		Trigger:   "any",
		Period:    100 * time.Millisecond,
		Cycles:    10,
	}
}

// Load reads configuration from path (optional) and the environment.
// Environment variables use the SPINDLE_ prefix, e.g. SPINDLE_CAPACITY.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("spindle")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("capacity", def.Capacity)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("semantics", def.Semantics)
	v.SetDefault("trigger", def.Trigger)
	v.SetDefault("period", def.Period)
	v.SetDefault("cycles", def.Cycles)
	v.SetDefault("journal", def.Journal)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.Period <= 0 {
		return fmt.Errorf("period must be positive, got %v", c.Period)
	}
	if c.Cycles < 0 {
		return fmt.Errorf("cycles must be non-negative, got %d", c.Cycles)
	}
	if _, err := c.SemanticsValue(); err != nil {
		return err
	}
	if _, err := c.TriggerValue(); err != nil {
		return err
	}
	return nil
}

// SemanticsValue resolves the semantics name.
func (c Config) SemanticsValue() (executor.Semantics, error) {
	switch c.Semantics {
	case "", "rclcpp":
		return executor.SemanticsRclcppLike, nil
	case "let":
		return executor.SemanticsLET, nil
	default:
		return 0, fmt.Errorf("unknown semantics %q (want rclcpp or let)", c.Semantics)
	}
}

// TriggerValue resolves the trigger name.
func (c Config) TriggerValue() (executor.Trigger, error) {
	switch c.Trigger {
	case "", "any":
		return executor.TriggerAny, nil
	case "all":
		return executor.TriggerAll, nil
	case "always":
		return executor.TriggerAlways, nil
	default:
		return nil, fmt.Errorf("unknown trigger %q (want any, all or always)", c.Trigger)
	}
}

// Options translates the configuration into executor options.
func (c Config) Options() ([]executor.Option, error) {
	semantics, err := c.SemanticsValue()
	if err != nil {
		return nil, err
	}
	trigger, err := c.TriggerValue()
	if err != nil {
		return nil, err
	}
	return []executor.Option{
		executor.WithTimeout(c.Timeout),
		executor.WithSemantics(semantics),
		executor.WithTrigger(trigger, nil),
	}, nil
}
