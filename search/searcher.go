package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/jobsift/ai"
	"github.com/poiesic/jobsift/config"
	"github.com/poiesic/jobsift/core"
	"github.com/poiesic/jobsift/corpus"
	"golang.org/x/sync/errgroup"
)

// CorpusSource supplies the current corpus snapshot.
type CorpusSource interface {
	Snapshot(ctx context.Context) (*corpus.Snapshot, error)
}

// VectorSource supplies job embedding vectors keyed by job ID.
type VectorSource interface {
	Vectors(ctx context.Context, jobs []*core.Job) (map[string][]float32, error)
}

// Request is a search query with optional caller filters.
type Request struct {
	Query   string   `json:"query"`
	Filters *Filters `json:"filters,omitempty"`
}

// Searcher ranks and filters the job corpus against free-text queries.
type Searcher struct {
	corpus       CorpusSource
	vectors      VectorSource
	embedder     ai.Embedder
	placeholders config.Placeholders
	logger       *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPlaceholders fills unknown salary, job type and experience level with
// fixed display values when placeholders.Enabled is set.
func WithPlaceholders(placeholders config.Placeholders) Option {
	return func(s *Searcher) error {
		s.placeholders = placeholders
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	source CorpusSource,
	vectors VectorSource,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if source == nil {
		return nil, ErrCorpusRequired
	}
	if vectors == nil {
		return nil, ErrVectorsRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		corpus:   source,
		vectors:  vectors,
		embedder: embedder,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Search runs the query through ranking and filtering.
//
// A failed search returns an error wrapping core.ErrDataUnavailable or
// core.ErrEmbeddingProvider. A search that matches nothing returns a
// Response with Count 0 and an explanation.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs a search with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req Request, monitor SearchMonitor) (*Response, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, core.ErrEmptyQuery
	}
	if err := req.Filters.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	monitor.Start(req)

	snapshot, err := s.corpus.Snapshot(ctx)
	if err != nil {
		s.logger.Error("error loading corpus", "err", err)
		if ctx.Err() == nil && !errors.Is(err, core.ErrDataUnavailable) {
			err = fmt.Errorf("%w: %w", core.ErrDataUnavailable, err)
		}
		return nil, err
	}

	// 1. Classify the query
	facets := Classify(query)
	policy := facets.Policy()
	monitor.AfterClassify(facets, policy)

	// 2. Embed the query and make sure every job has a vector
	var (
		queryVec []float32
		vectors  map[string][]float32
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.embedder.EmbedText(gctx, query)
		if err != nil {
			return err
		}
		if len(v) == 0 {
			return errors.New("empty query embedding")
		}
		queryVec = v
		return nil
	})
	g.Go(func() error {
		v, err := s.vectors.Vectors(gctx, snapshot.Jobs)
		if err != nil {
			return err
		}
		vectors = v
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("error generating embeddings", "query", query, "err", err)
		if ctx.Err() == nil && !errors.Is(err, core.ErrEmbeddingProvider) {
			err = fmt.Errorf("%w: %w", core.ErrEmbeddingProvider, err)
		}
		return nil, err
	}

	// 3. Rank
	ranked := Rank(queryVec, snapshot.Jobs, vectors)
	monitor.AfterRank(ranked)

	// 4. Threshold, structured filters, cap
	var steps []Step
	record := func(step Step) {
		steps = append(steps, step)
		s.logger.Debug("search step", "step", step.Name, "detail", step.Detail,
			"before", step.Before, "after", step.After, "unresolved", step.Unresolved)
		monitor.AfterStep(step)
	}

	candidates := make([]core.ScoredJob, 0, len(ranked))
	for _, sj := range ranked {
		if sj.Score >= policy.Threshold {
			candidates = append(candidates, sj)
		}
	}
	record(Step{
		Name:   "threshold",
		Detail: strconv.FormatFloat(policy.Threshold, 'f', 2, 64),
		Before: len(ranked),
		After:  len(candidates),
	})

	for _, f := range buildFilters(facets, req.Filters, snapshot) {
		var step Step
		candidates, step = f.apply(candidates)
		record(step)
	}

	if len(candidates) > policy.Cap {
		record(Step{
			Name:   "cap",
			Detail: strconv.Itoa(policy.Cap),
			Before: len(candidates),
			After:  policy.Cap,
		})
		candidates = candidates[:policy.Cap]
	}

	// 5. Assemble
	resp := assemble(query, candidates, snapshot, facets, policy, steps, s.placeholders)
	monitor.Finish(resp)

	s.logger.Info("search complete", "query", query, "results", resp.Count,
		"threshold", policy.Threshold, "cap", policy.Cap, "confidence", resp.Confidence,
		"elapsed", time.Since(started))
	return resp, nil
}
