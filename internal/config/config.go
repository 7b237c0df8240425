// Package config loads application configuration from YAML, .env files and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "nightscout.yaml"

type Config struct {
	Nightscout NightscoutConfig `yaml:"nightscout"`
	Display    DisplayConfig    `yaml:"display"`
	Storage    StorageConfig    `yaml:"storage"`
	API        APIConfig        `yaml:"api"`
	Log        LogConfig        `yaml:"log"`
}

type NightscoutConfig struct {
	URL             string        `yaml:"url" validate:"omitempty,url"`
	Count           int           `yaml:"count" default:"10" validate:"min=2,max=1000"`
	Unit            string        `yaml:"unit" default:"mg/dl" validate:"oneof=mg/dl mmol mg/dL mmol/L"`
	LockUnit        bool          `yaml:"lock_unit"`
	RefreshInterval time.Duration `yaml:"refresh_interval" default:"60s" validate:"gte=10s"`
	SettingsTimeout time.Duration `yaml:"settings_timeout" default:"5s" validate:"gt=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" default:"30s" validate:"gt=0"`
}

type DisplayConfig struct {
	ShowDelta   bool   `yaml:"show_delta" default:"true"`
	ShowElapsed bool   `yaml:"show_elapsed" default:"false"`
	Language    string `yaml:"language" default:"en" validate:"required"`
	History     int    `yaml:"history" default:"5" validate:"min=0,max=50"`
}

type StorageConfig struct {
	Path string `yaml:"path" default:"nightscout.db" validate:"required"`
}

type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen" default:"127.0.0.1:8181" validate:"hostname_port"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	Output string `yaml:"output" default:"stderr"`
}

var validate = validator.New()

// Load builds the configuration: struct defaults first, then the YAML file
// at path (skipped when path is empty), then a .env file in the working
// directory, then NIGHTSCOUT_* environment overrides.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NIGHTSCOUT_URL"); v != "" {
		c.Nightscout.URL = v
	}
	if v := os.Getenv("NIGHTSCOUT_UNIT"); v != "" {
		c.Nightscout.Unit = v
	}
	if v := os.Getenv("NIGHTSCOUT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NIGHTSCOUT_LISTEN"); v != "" {
		c.API.Listen = v
	}
	if v := os.Getenv("NIGHTSCOUT_DB"); v != "" {
		c.Storage.Path = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// DisplayUnit returns the configured initial display unit.
func (c *Config) DisplayUnit() bloodsugar.Unit {
	u, err := bloodsugar.ParseUnit(c.Nightscout.Unit)
	if err != nil {
		return bloodsugar.MgdL
	}
	return u
}
