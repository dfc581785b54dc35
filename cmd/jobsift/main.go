// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/jobsift"
	"github.com/poiesic/jobsift/config"
	"github.com/urfave/cli/v2"
)

var version = "dev"

// newService opens the engine. Tests replace it to inject a provider.
var newService = jobsift.Open

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "jobsift",
		Usage:   "Semantic job search with adaptive filtering",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"JOBSIFT_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"JOBSIFT_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file if it exists",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory holding the CSV corpus (overrides config)",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Record source: csv or sqlite (overrides config)",
			},
		},
		Before: func(c *cli.Context) error {
			if err := loadEnv(c.String("env-file")); err != nil {
				return err
			}
			return setupLogger(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "warm",
						Usage: "Embed the corpus in the background before the first search (overrides config)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run one search and print the results",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "location", Usage: "Keep jobs whose location contains this (repeatable)"},
					&cli.StringSliceFlag{Name: "industry", Usage: "Keep jobs at companies in this industry (repeatable)"},
					&cli.StringFlag{Name: "experience", Usage: "Experience level: entry, mid, senior, lead or executive"},
					&cli.BoolFlag{Name: "remote", Usage: "Only remote jobs (--remote=false for on-site only)"},
					&cli.IntFlag{Name: "salary-min", Usage: "Lowest acceptable salary"},
					&cli.IntFlag{Name: "salary-max", Usage: "Highest acceptable salary"},
					&cli.BoolFlag{Name: "json", Usage: "Print the full response as JSON"},
					&cli.BoolFlag{Name: "trace", Usage: "Print each classification, ranking and filter stage"},
					&cli.IntFlag{Name: "trace-top", Usage: "Ranked jobs to show in the trace", Value: 10},
				},
			},
			{
				Name:   "warm",
				Usage:  "Embed the whole corpus and report how long it took",
				Action: warmCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "batch-size", Usage: "Jobs per embedding request (overrides config)"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent batches (overrides config)"},
					&cli.IntFlag{Name: "report-interval", Usage: "Report progress every N jobs", Value: 100},
				},
			},
			{
				Name:   "import",
				Usage:  "Load the CSV corpus into a SQLite database",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "CSV directory (defaults to the configured data dir)"},
					&cli.StringFlag{Name: "to", Usage: "SQLite database path (defaults to the configured path)"},
					&cli.DurationFlag{Name: "lock-wait", Usage: "How long to wait for another import to finish", Value: 5 * time.Second},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the search tools over MCP stdio",
				Action: mcpCommand,
			},
			{
				Name:      "set-api-key",
				Usage:     "Store the embedding API key in the system keyring",
				ArgsUsage: "[key]",
				Action:    setAPIKeyCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "delete", Usage: "Remove the stored key instead"},
				},
			},
		},
	}
}

// loadEnv reads KEY=VALUE pairs from path without overriding variables
// that are already set. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// stdout belongs to command output and the MCP transport
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig reads --config and applies the global overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.Data.Dir = dir
	}
	if source := c.String("source"); source != "" {
		cfg.Data.Source = source
	}
	return cfg, config.Validate(cfg)
}
