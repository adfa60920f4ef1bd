// Package config loads process-level configuration: where data lives, which
// store backend to use, logging and the focus probe. User-facing timer
// preferences live in package settings instead.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configurable locus settings.
type Config struct {
	DataDir       string   `mapstructure:"data_dir" yaml:"data_dir"`             // overrides $XDG_DATA_HOME/locus
	Store         string   `mapstructure:"store" yaml:"store"`                   // "json" | "sqlite"
	LogLevel      string   `mapstructure:"log_level" yaml:"log_level"`           // "debug" | "info" | "warn" | "error"
	DefaultFormat string   `mapstructure:"default_format" yaml:"default_format"` // "markdown" | "json" | "yaml"
	Observer      Observer `mapstructure:"observer" yaml:"observer"`
}

// Observer configures the focus probe.
type Observer struct {
	// Command is a shell snippet printing "Window|Title". Empty selects the
	// platform default.
	Command      string        `mapstructure:"command" yaml:"command"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// Formats accepted for DefaultFormat.
var Formats = []string{"markdown", "json", "yaml"}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		Store:         "json",
		LogLevel:      "warn",
		DefaultFormat: "markdown",
		Observer:      Observer{PollInterval: 300 * time.Millisecond},
	}
}

// GlobalDir returns $XDG_CONFIG_HOME/locus, falling back to ~/.config/locus.
func GlobalDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "locus"), nil
}

// LoadGlobal reads config.yaml from GlobalDir, overlaid with LOCUS_*
// environment variables (e.g. LOCUS_STORE, LOCUS_OBSERVER_COMMAND).
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	dir, err := GlobalDir()
	if err != nil {
		return nil, err
	}
	d := Defaults()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("locus")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("store", d.Store)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("default_format", d.DefaultFormat)
	v.SetDefault("observer.command", d.Observer.Command)
	v.SetDefault("observer.poll_interval", d.Observer.PollInterval)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &ParseError{Path: filepath.Join(dir, "config.yaml"), Err: err}
		}
	}
	return decode(v, filepath.Join(dir, "config.yaml"))
}

// LoadProject reads .locusrc.yaml in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".locusrc")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, &ParseError{Path: ".locusrc.yaml", Err: err}
	}
	return decode(v, v.ConfigFileUsed())
}

func decode(v *viper.Viper, path string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := cfg.validate(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// validate checks enumerated fields that are set.
func (c Config) validate() error {
	var errs []error
	switch c.Store {
	case "", "json", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("store must be json or sqlite, got %q", c.Store))
	}
	if c.DefaultFormat != "" && !validFormat(c.DefaultFormat) {
		errs = append(errs, fmt.Errorf("default_format must be one of %s, got %q", strings.Join(Formats, ", "), c.DefaultFormat))
	}
	if c.Observer.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("observer.poll_interval must not be negative"))
	}
	return errors.Join(errs...)
}

func validFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Load returns the merged global and project configuration.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, err
	}
	return Merge(global, project), nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, src := range []*Config{global, project} {
		if src == nil {
			continue
		}
		if src.DataDir != "" {
			result.DataDir = src.DataDir
		}
		if src.Store != "" {
			result.Store = src.Store
		}
		if src.LogLevel != "" {
			result.LogLevel = src.LogLevel
		}
		if src.DefaultFormat != "" {
			result.DefaultFormat = src.DefaultFormat
		}
		if src.Observer.Command != "" {
			result.Observer.Command = src.Observer.Command
		}
		if src.Observer.PollInterval > 0 {
			result.Observer.PollInterval = src.Observer.PollInterval
		}
	}
	return result
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
