// Package config loads the jobsift YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Data source kinds.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

// TagRule attaches Tag to a job whose title or overview contains any of the
// Any terms (case-insensitive).
type TagRule struct {
	Tag string   `yaml:"tag"`
	Any []string `yaml:"any"`
}

// Salary is a placeholder salary range.
type Salary struct {
	Min      int    `yaml:"min"`
	Max      int    `yaml:"max"`
	Currency string `yaml:"currency"`
}

// Placeholders restores fixed display values for fields the corpus does not
// carry. Disabled by default, in which case those fields are null.
type Placeholders struct {
	Enabled         bool   `yaml:"enabled"`
	Salary          Salary `yaml:"salary"`
	JobType         string `yaml:"job_type"`
	ExperienceLevel string `yaml:"experience_level"`
}

type Config struct {
	Server struct {
		Addr         string        `yaml:"addr"`
		AdminToken   string        `yaml:"admin_token"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Data struct {
		Source          string `yaml:"source"` // csv | sqlite
		Dir             string `yaml:"dir"`
		SQLitePath      string `yaml:"sqlite_path"`
		VectorDir       string `yaml:"vector_dir"` // empty keeps vectors in memory only
		DefaultLocation string `yaml:"default_location"`
	} `yaml:"data"`

	Embedding struct {
		Host            string        `yaml:"host"`
		Model           string        `yaml:"model"`
		Timeout         time.Duration `yaml:"timeout"`
		BreakerFailures int           `yaml:"breaker_failures"`
		BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
	} `yaml:"embedding"`

	Warmup struct {
		OnStart       bool          `yaml:"on_start"`
		BatchSize     int           `yaml:"batch_size"`
		Workers       int           `yaml:"workers"`
		RatePerSecond float64       `yaml:"rate_per_second"`
		MaxAttempts   int           `yaml:"max_attempts"`
		BaseDelay     time.Duration `yaml:"base_delay"`
	} `yaml:"warmup"`

	Tags         []TagRule    `yaml:"tags"`
	Placeholders Placeholders `yaml:"placeholders"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second

	cfg.Data.Source = SourceCSV
	cfg.Data.Dir = "data"
	cfg.Data.SQLitePath = "jobsift.db"
	cfg.Data.DefaultLocation = "San Francisco, CA"

	cfg.Embedding.Host = "http://localhost:11434/v1"
	cfg.Embedding.Model = "embeddinggemma"
	cfg.Embedding.Timeout = 10 * time.Second
	cfg.Embedding.BreakerFailures = 5
	cfg.Embedding.BreakerCooldown = 30 * time.Second

	cfg.Warmup.BatchSize = 64
	cfg.Warmup.Workers = 2
	cfg.Warmup.RatePerSecond = 4
	cfg.Warmup.MaxAttempts = 3
	cfg.Warmup.BaseDelay = 500 * time.Millisecond

	cfg.Placeholders.Salary = Salary{Min: 120000, Max: 180000, Currency: "USD"}
	cfg.Placeholders.JobType = "Full-time"
	cfg.Placeholders.ExperienceLevel = "Mid-level"
	return cfg
}

// Load reads path over the defaults and validates the result.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
