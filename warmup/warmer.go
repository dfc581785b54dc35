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


package warmup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/jobsift/core"
	"github.com/poiesic/jobsift/corpus"
	"golang.org/x/time/rate"
)

const (
	// DefaultBatchSize is the default number of jobs per provider call
	DefaultBatchSize = 64

	// DefaultWorkers is the default number of batches in flight
	DefaultWorkers = 2
)

// CorpusSource supplies the current corpus snapshot.
type CorpusSource interface {
	Snapshot(ctx context.Context) (*corpus.Snapshot, error)
}

// VectorCache computes and keeps job vectors.
type VectorCache interface {
	Vectors(ctx context.Context, jobs []*core.Job) (map[string][]float32, error)
}

// Result summarizes a warm-up run.
type Result struct {
	Jobs    int           `json:"jobs"`
	Warmed  int           `json:"warmed"`
	Batches int           `json:"batches"`
	Failed  int           `json:"failed_batches"`
	Elapsed time.Duration `json:"elapsed"`
}

// Warmer embeds every job in the corpus through the cache.
type Warmer struct {
	corpus      CorpusSource
	cache       VectorCache
	batchSize   int
	workers     int
	limiter     *rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Warmer.
type Option func(*Warmer) error

// WithBatchSize sets the number of jobs per provider call.
func WithBatchSize(size int) Option {
	return func(w *Warmer) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive: %d", size)
		}
		w.batchSize = size
		return nil
	}
}

// WithWorkers sets how many batches may be in flight at once.
func WithWorkers(workers int) Option {
	return func(w *Warmer) error {
		if workers < 1 {
			workers = 1
		}
		w.workers = workers
		return nil
	}
}

// WithRate limits provider calls to perSecond batches per second.
// Zero or negative removes the limit.
func WithRate(perSecond float64) Option {
	return func(w *Warmer) error {
		if perSecond <= 0 {
			w.limiter = rate.NewLimiter(rate.Inf, 1)
			return nil
		}
		w.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		return nil
	}
}

// WithRetry sets the attempts per batch and the base backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(w *Warmer) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		w.maxAttempts = maxAttempts
		w.baseDelay = baseDelay
		return nil
	}
}

// WithProgress reports progress to writer.
func WithProgress(writer io.Writer) Option {
	return func(w *Warmer) error {
		w.progress = writer
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Warmer) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWarmer creates a new warmer.
func NewWarmer(source CorpusSource, cache VectorCache, opts ...Option) (*Warmer, error) {
	if source == nil {
		return nil, ErrCorpusRequired
	}
	if cache == nil {
		return nil, ErrCacheRequired
	}

	w := &Warmer{
		corpus:      source,
		cache:       cache,
		batchSize:   DefaultBatchSize,
		workers:     DefaultWorkers,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		maxAttempts: 3,
		baseDelay:   500 * time.Millisecond,
		progress:    io.Discard,
		logger:      slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	w.logger = w.logger.With("component", "warmer")

	return w, nil
}

// Run embeds every job in the current snapshot. Failed batches do not stop
// the others; their errors are joined into the returned error.
func (w *Warmer) Run(ctx context.Context) (Result, error) {
	snapshot, err := w.corpus.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}

	batches := Batches(snapshot.Jobs, w.batchSize)
	result := Result{Jobs: len(snapshot.Jobs), Batches: len(batches)}
	if len(batches) == 0 {
		w.logger.Info("nothing to warm")
		return result, nil
	}

	pool, err := ants.NewPool(w.workers)
	if err != nil {
		return result, err
	}
	defer pool.Release()

	w.logger.Info("warming embedding cache", "jobs", result.Jobs, "batches", result.Batches, "workers", w.workers)
	tracker := NewProgressTracker(w.progress, result.Jobs, w.batchSize)
	tracker.Start()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i, batch := range batches {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := w.process(ctx, batch); err != nil {
				w.logger.Warn("warm-up batch failed", "batch", i, "jobs", len(batch), "err", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("batch %d: %w", i, err))
				mu.Unlock()
				return
			}
			tracker.Increment(len(batch))
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("batch %d: %w", i, submitErr))
			mu.Unlock()
		}
	}
	wg.Wait()
	tracker.Finish()

	result.Warmed = tracker.Current()
	result.Failed = len(errs)
	result.Elapsed = tracker.Elapsed()
	w.logger.Info("warm-up finished", "warmed", result.Warmed, "failed_batches", result.Failed, "elapsed", result.Elapsed)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, errors.Join(errs...)
}

func (w *Warmer) process(ctx context.Context, batch []*core.Job) error {
	return RetryWithBackoff(ctx, func() error {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
		_, err := w.cache.Vectors(ctx, batch)
		return err
	}, w.maxAttempts, w.baseDelay)
}

// Batches splits jobs into consecutive slices of at most size jobs.
func Batches(jobs []*core.Job, size int) [][]*core.Job {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]*core.Job
	for i := 0; i < len(jobs); i += size {
		end := min(i+size, len(jobs))
		out = append(out, jobs[i:end])
	}
	return out
}
