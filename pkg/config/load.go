package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. IMGX_MIN_WIDTH=500
const EnvPrefix = "IMGX"

// Load reads the YAML config at path and applies environment overrides on top.
// A missing file is only an error when required is true; otherwise defaults and env are used.
// Validate is not called here so callers can report warnings their own way.
func Load(path string, required bool) (*AppConfig, error) {
	var cfg AppConfig

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
		// Defaults + env only
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv loads a .env file from the working directory if one exists and
// overlays IMGX_* environment variables onto cfg. Unset variables leave cfg untouched.
func ApplyEnv(cfg *AppConfig) error {
	if err := godotenv.Load(); err != nil {
		// Only a .env that exists but can't be parsed is a problem
		if _, statErr := os.Stat(".env"); statErr == nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}
