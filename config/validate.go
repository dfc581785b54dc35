package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports every problem in cfg at once.
func Validate(cfg Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		errs = append(errs, "server.addr is required")
	}
	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 {
		errs = append(errs, "server timeouts must be >= 0")
	}

	switch cfg.Data.Source {
	case SourceCSV:
		if cfg.Data.Dir == "" {
			errs = append(errs, "data.dir is required for the csv source")
		}
	case SourceSQLite:
		if cfg.Data.SQLitePath == "" {
			errs = append(errs, "data.sqlite_path is required for the sqlite source")
		}
	default:
		errs = append(errs, fmt.Sprintf("data.source must be %q or %q, got %q", SourceCSV, SourceSQLite, cfg.Data.Source))
	}
	if strings.TrimSpace(cfg.Data.DefaultLocation) == "" {
		errs = append(errs, "data.default_location is required")
	}

	if cfg.Embedding.Host == "" {
		errs = append(errs, "embedding.host is required")
	}
	if cfg.Embedding.Model == "" {
		errs = append(errs, "embedding.model is required")
	}
	if cfg.Embedding.Timeout <= 0 {
		errs = append(errs, "embedding.timeout must be > 0")
	}
	if cfg.Embedding.BreakerFailures < 0 {
		errs = append(errs, "embedding.breaker_failures must be >= 0")
	}

	if cfg.Warmup.BatchSize <= 0 {
		errs = append(errs, "warmup.batch_size must be > 0")
	}
	if cfg.Warmup.Workers <= 0 {
		errs = append(errs, "warmup.workers must be > 0")
	}
	if cfg.Warmup.RatePerSecond < 0 {
		errs = append(errs, "warmup.rate_per_second must be >= 0")
	}
	if cfg.Warmup.MaxAttempts <= 0 {
		errs = append(errs, "warmup.max_attempts must be > 0")
	}

	for i, r := range cfg.Tags {
		if r.Tag == "" {
			errs = append(errs, fmt.Sprintf("tags[%d].tag is required", i))
		}
		if len(r.Any) == 0 {
			errs = append(errs, fmt.Sprintf("tags[%d].any must have at least 1 term", i))
		}
		for j, term := range r.Any {
			if strings.TrimSpace(term) == "" {
				errs = append(errs, fmt.Sprintf("tags[%d].any[%d] cannot be empty", i, j))
			}
		}
	}

	if p := cfg.Placeholders; p.Enabled && p.Salary.Max > 0 && p.Salary.Min > p.Salary.Max {
		errs = append(errs, "placeholders.salary.min must be <= max")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}
