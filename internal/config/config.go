package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gridhost/internal/observability"
)

type Config struct {
	Addr      string `yaml:"addr"`
	Rows      int    `yaml:"rows"`
	Shuffle   bool   `yaml:"shuffle"`
	Seed      uint64 `yaml:"seed"`
	LogLevel  string `yaml:"log_level"`
	PageLimit int    `yaml:"page_limit"`
}

func Default() Config {
	return Config{
		Addr:      ":8080",
		Rows:      20,
		Shuffle:   true,
		Seed:      0,
		LogLevel:  "info",
		PageLimit: 100,
	}
}

// Load applies, in order: defaults, the YAML file at path (skipped when path
// is empty), then GRID_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("GRID_ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := get("GRID_ROWS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid env GRID_ROWS: %w", err)
		}
		cfg.Rows = parsed
	}
	if v, ok := get("GRID_SHUFFLE"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid env GRID_SHUFFLE: %w", err)
		}
		cfg.Shuffle = parsed
	}
	if v, ok := get("GRID_SEED"); ok {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid env GRID_SEED: %w", err)
		}
		cfg.Seed = parsed
	}
	if v, ok := get("GRID_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := get("GRID_PAGE_LIMIT"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid env GRID_PAGE_LIMIT: %w", err)
		}
		cfg.PageLimit = parsed
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.Rows < 0 {
		errs = append(errs, fmt.Errorf("rows must be >= 0, got %d", c.Rows))
	}
	if c.PageLimit <= 0 {
		errs = append(errs, fmt.Errorf("page_limit must be > 0, got %d", c.PageLimit))
	}
	if _, err := observability.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// Level is LogLevel parsed; Validate guarantees it parses.
func (c Config) Level() slog.Level {
	lvl, _ := observability.ParseLevel(c.LogLevel)
	return lvl
}
