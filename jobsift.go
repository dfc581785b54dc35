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


package jobsift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/jobsift/ai"
	"github.com/poiesic/jobsift/ai/openai"
	"github.com/poiesic/jobsift/config"
	"github.com/poiesic/jobsift/core"
	"github.com/poiesic/jobsift/corpus"
	"github.com/poiesic/jobsift/embedcache"
	"github.com/poiesic/jobsift/search"
	"github.com/poiesic/jobsift/storage"
	"github.com/poiesic/jobsift/storage/badger"
	"github.com/poiesic/jobsift/storage/csv"
	"github.com/poiesic/jobsift/storage/sqlite"
	"github.com/poiesic/jobsift/warmup"
)

// Service wires the record source, corpus snapshot, embedding cache and
// searcher into one process-wide search engine.
type Service struct {
	cfg      config.Config
	provider ai.AIProvider
	db       *sqlite.DB
	store    storage.VectorStore
	manager  *corpus.Manager
	cache    *embedcache.Cache
	searcher *search.Searcher
	logger   *slog.Logger
	started  time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	provider ai.AIProvider
	source   storage.RecordSource
	apiKey   string
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the config.
// The service takes ownership and closes it.
func WithProvider(provider ai.AIProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithRecordSource reads records from source instead of the configured one.
func WithRecordSource(source storage.RecordSource) ServiceOption {
	return func(o *serviceOptions) {
		o.source = source
	}
}

// WithAPIKey sets the embedding provider API key.
func WithAPIKey(key string) ServiceOption {
	return func(o *serviceOptions) {
		o.apiKey = key
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// Open builds a Service from cfg. Nothing is loaded or embedded until the
// first search or warm-up.
func Open(ctx context.Context, cfg config.Config, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	s := &Service{
		cfg:     cfg,
		logger:  options.logger.With("component", "service"),
		started: time.Now(),
	}

	// Record source
	source := options.source
	if source == nil {
		var err error
		source, err = s.openSource(ctx)
		if err != nil {
			return nil, err
		}
	}

	// Embedding provider
	s.provider = options.provider
	if s.provider == nil {
		aiConfig := ai.NewConfig(
			ai.WithEmbeddingHost(cfg.Embedding.Host),
			ai.WithEmbeddingModel(cfg.Embedding.Model),
			ai.WithAPIKey(ai.ResolveAPIKey(options.apiKey)),
			ai.WithTimeout(cfg.Embedding.Timeout),
			ai.WithBreaker(cfg.Embedding.BreakerFailures, cfg.Embedding.BreakerCooldown),
		)
		provider, err := openai.NewProvider(aiConfig)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("embedding provider: %w", err)
		}
		s.provider = provider
	}

	// Durable vectors are optional
	if cfg.Data.VectorDir != "" {
		store, err := badger.NewVectorStore(cfg.Data.VectorDir)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("vector store: %w", err)
		}
		s.store = store
	}

	loader, err := corpus.NewLoader(source,
		corpus.WithDefaultLocation(cfg.Data.DefaultLocation),
		corpus.WithTagRules(cfg.Tags),
		corpus.WithLoaderLogger(options.logger),
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.manager, err = corpus.NewManager(loader, options.logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	cacheOpts := []embedcache.Option{
		embedcache.WithModel(s.provider.Model()),
		embedcache.WithLogger(options.logger),
	}
	if s.store != nil {
		cacheOpts = append(cacheOpts, embedcache.WithStore(s.store))
	}
	s.cache, err = embedcache.New(s.provider.Embedder(), cacheOpts...)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.searcher, err = search.NewSearcher(s.manager, s.cache, s.provider.Embedder(),
		search.WithLogger(options.logger),
		search.WithPlaceholders(cfg.Placeholders),
	)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.logger.Info("service ready", "source", cfg.Data.Source, "model", s.provider.Model(), "durable_vectors", s.store != nil)
	return s, nil
}

func (s *Service) openSource(ctx context.Context) (storage.RecordSource, error) {
	switch s.cfg.Data.Source {
	case config.SourceCSV, "":
		return csv.NewSource(s.cfg.Data.Dir, csv.WithLogger(s.logger))
	case config.SourceSQLite:
		db, err := sqlite.Open(ctx, s.cfg.Data.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrDataUnavailable, err)
		}
		s.db = db
		return sqlite.NewSource(db)
	default:
		return nil, fmt.Errorf("unknown data source %q", s.cfg.Data.Source)
	}
}

// Search runs a query against the current corpus.
func (s *Service) Search(ctx context.Context, req search.Request) (*search.Response, error) {
	return s.searcher.Search(ctx, req)
}

// SearchWithMonitor runs a query and reports each stage to monitor.
func (s *Service) SearchWithMonitor(ctx context.Context, req search.Request, monitor search.SearchMonitor) (*search.Response, error) {
	return s.searcher.SearchWithMonitor(ctx, req, monitor)
}

// Warm embeds every job in the corpus ahead of the first search. The
// configured warm-up settings apply; opts override them.
func (s *Service) Warm(ctx context.Context, opts ...warmup.Option) (warmup.Result, error) {
	w := s.cfg.Warmup
	defaults := []warmup.Option{
		warmup.WithBatchSize(max(w.BatchSize, 1)),
		warmup.WithWorkers(w.Workers),
		warmup.WithRate(w.RatePerSecond),
		warmup.WithRetry(max(w.MaxAttempts, 1), w.BaseDelay),
		warmup.WithLogger(s.logger),
	}
	warmer, err := warmup.NewWarmer(s.manager, s.cache, append(defaults, opts...)...)
	if err != nil {
		return warmup.Result{}, err
	}
	return warmer.Run(ctx)
}

// Invalidate drops every cached embedding, in memory and on disk, and
// forces the corpus to reload on the next search.
func (s *Service) Invalidate(ctx context.Context) error {
	s.manager.Invalidate()
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Error("error clearing embedding cache", "err", err)
		return err
	}
	s.logger.Info("caches invalidated")
	return nil
}

// Reload loads a fresh corpus snapshot now and returns its statistics.
func (s *Service) Reload(ctx context.Context) (corpus.LoadStats, error) {
	snap, err := s.manager.Reload(ctx)
	if err != nil {
		return corpus.LoadStats{}, err
	}
	return snap.Stats, nil
}

// Status describes the engine state for operators.
type Status struct {
	Source        string           `json:"source"`
	Model         string           `json:"model"`
	Breaker       string           `json:"breaker"`
	Corpus        *CorpusStatus    `json:"corpus"`
	Cache         embedcache.Stats `json:"cache"`
	StoredVectors *int             `json:"stored_vectors,omitempty"`
	Uptime        string           `json:"uptime"`
}

// CorpusStatus describes the loaded snapshot.
type CorpusStatus struct {
	corpus.LoadStats
	LoadedAt time.Time `json:"loaded_at"`
}

// Status reports the current state. Corpus is nil until the first load.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{
		Source:  s.cfg.Data.Source,
		Model:   s.provider.Model(),
		Breaker: "disabled",
		Cache:   s.cache.Stats(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	}
	if b, ok := s.provider.Embedder().(interface{ State() string }); ok {
		st.Breaker = b.State()
	}
	if snap := s.manager.Current(); snap != nil {
		st.Corpus = &CorpusStatus{LoadStats: snap.Stats, LoadedAt: snap.LoadedAt}
	}
	if s.store != nil {
		if n, err := s.store.Count(ctx); err == nil {
			st.StoredVectors = &n
		} else {
			s.logger.Warn("error counting stored vectors", "err", err)
		}
	}
	return st
}

// Close releases the provider, vector store and database.
func (s *Service) Close() error {
	var errs []error

	// Close AI provider first
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("error closing vector store", "err", err)
			errs = append(errs, err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("error closing database", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
