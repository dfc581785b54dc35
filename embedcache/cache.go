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


// Package embedcache keeps job embedding vectors in memory, computing missing
// ones in a single provider batch per call.
//
// Each job ID has at most one computation in flight. A caller that needs a
// vector another caller is already computing waits for that result instead of
// asking the provider again. Entries are keyed by job ID and tagged with the
// fingerprint of the text they were computed from, so a changed job is
// re-embedded on its next lookup.
package embedcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/jobsift/ai"
	"github.com/poiesic/jobsift/core"
	"github.com/poiesic/jobsift/storage"
)

// ErrEmbedderRequired is returned when no embedder is given.
var ErrEmbedderRequired = errors.New("embedder required")

type entry struct {
	done        chan struct{}
	fingerprint core.ID
	vector      []float32
	err         error
}

func (e *entry) ready() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Stats reports cache activity since construction.
type Stats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Waits     int64 `json:"waits"`
	StoreHits int64 `json:"store_hits"`
	Embedded  int64 `json:"embedded"`
	Batches   int64 `json:"batches"`
	Failures  int64 `json:"failures"`
}

// Cache maps job IDs to embedding vectors.
type Cache struct {
	embedder ai.Embedder
	model    string
	store    storage.VectorStore
	logger   *slog.Logger

	mu         sync.Mutex
	entries    map[string]*entry
	generation uint64

	hits      atomic.Int64
	waits     atomic.Int64
	storeHits atomic.Int64
	embedded  atomic.Int64
	batches   atomic.Int64
	failures  atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithModel records the embedding model name with every entry.
// Persisted entries from another model are ignored.
func WithModel(model string) Option {
	return func(c *Cache) {
		c.model = model
	}
}

// WithStore backs the cache with a durable vector store.
func WithStore(store storage.VectorStore) Option {
	return func(c *Cache) {
		c.store = store
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty cache over embedder.
func New(embedder ai.Embedder, opts ...Option) (*Cache, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	c := &Cache{
		embedder: embedder,
		entries:  make(map[string]*entry),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "embedding-cache")
	return c, nil
}

// Vectors returns a vector for every job, keyed by job ID.
//
// Jobs without a fresh vector are embedded with one EmbedTexts call. Jobs
// another caller is already embedding are waited on. A caller that gives up
// does not cancel a batch others are waiting on. If the provider fails,
// the call fails with core.ErrEmbeddingProvider and the failed entries are
// dropped so a later call retries them.
func (c *Cache) Vectors(ctx context.Context, jobs []*core.Job) (map[string][]float32, error) {
	result := make(map[string][]float32, len(jobs))
	var (
		owned   []*core.Job
		ownedBy = make(map[string]*entry)
		waiting = make(map[string]*entry)
	)

	c.mu.Lock()
	generation := c.generation
	for _, job := range jobs {
		if _, dup := ownedBy[job.ID]; dup {
			continue
		}
		if _, dup := waiting[job.ID]; dup {
			continue
		}
		fp := job.Fingerprint()
		if e, ok := c.entries[job.ID]; ok && e.fingerprint == fp {
			if e.ready() {
				result[job.ID] = e.vector
				c.hits.Add(1)
			} else {
				waiting[job.ID] = e
			}
			continue
		}
		e := &entry{done: make(chan struct{}), fingerprint: fp}
		c.entries[job.ID] = e
		ownedBy[job.ID] = e
		owned = append(owned, job)
	}
	c.mu.Unlock()

	if len(owned) > 0 {
		// Waiters share the batch, so it runs detached from this caller and
		// is bounded by the embedder's own timeout.
		computed := make(chan error, 1)
		go func() {
			computed <- c.compute(context.WithoutCancel(ctx), generation, owned, ownedBy)
		}()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err := <-computed:
			if err != nil {
				return nil, err
			}
		}
		for id, e := range ownedBy {
			result[id] = e.vector
		}
	}

	for id, e := range waiting {
		c.waits.Add(1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-e.done:
		}
		if e.err != nil {
			return nil, e.err
		}
		result[id] = e.vector
	}

	return result, nil
}

// compute resolves every owned entry, from the durable store when possible
// and otherwise with a single provider batch. Every owned entry is completed
// before it returns.
func (c *Cache) compute(ctx context.Context, generation uint64, jobs []*core.Job, owned map[string]*entry) error {
	pending := jobs
	if c.store != nil {
		pending = c.fromStore(ctx, jobs, owned)
	}
	if len(pending) == 0 {
		return nil
	}

	texts := make([]string, len(pending))
	for i, job := range pending {
		texts[i] = job.EmbeddingText()
	}

	c.batches.Add(1)
	c.logger.Debug("embedding batch", "jobs", len(pending))
	start := time.Now()
	vectors, err := c.embedder.EmbedTexts(ctx, texts)
	if err == nil && len(vectors) != len(pending) {
		err = fmt.Errorf("embedding result mismatch. expected %d, received %d", len(pending), len(vectors))
	}
	if err == nil {
		for i, v := range vectors {
			if len(v) == 0 {
				err = fmt.Errorf("empty embedding for job %q", pending[i].ID)
				break
			}
		}
	}
	if err != nil {
		if !errors.Is(err, core.ErrEmbeddingProvider) {
			err = fmt.Errorf("%w: %w", core.ErrEmbeddingProvider, err)
		}
		c.fail(pending, owned, err)
		c.logger.Warn("embedding batch failed", "jobs", len(pending), "err", err)
		return err
	}

	now := time.Now().UTC()
	persist := make([]*core.EmbeddingEntry, 0, len(pending))
	for i, job := range pending {
		e := owned[job.ID]
		e.vector = vectors[i]
		close(e.done)
		persist = append(persist, &core.EmbeddingEntry{
			JobID:       job.ID,
			Vector:      vectors[i],
			Fingerprint: e.fingerprint,
			Model:       c.model,
			CreatedAt:   now,
		})
	}
	c.embedded.Add(int64(len(pending)))
	c.logger.Debug("embedding batch complete", "jobs", len(pending), "elapsed", time.Since(start))

	if c.store != nil {
		c.mu.Lock()
		stale := c.generation != generation
		c.mu.Unlock()
		if !stale {
			if err := c.store.PutVectors(ctx, persist...); err != nil {
				c.logger.Warn("failed to persist vectors", "count", len(persist), "err", err)
			}
		}
	}
	return nil
}

// fromStore completes owned entries that have a fresh persisted vector and
// returns the jobs still needing embedding. Store errors only cost a re-embed.
func (c *Cache) fromStore(ctx context.Context, jobs []*core.Job, owned map[string]*entry) []*core.Job {
	ids := make([]string, len(jobs))
	for i, job := range jobs {
		ids[i] = job.ID
	}
	stored, err := c.store.GetVectors(ctx, ids...)
	if err != nil {
		c.logger.Warn("vector store lookup failed", "err", err)
		return jobs
	}

	pending := jobs[:0:0]
	for _, job := range jobs {
		if se, ok := stored[job.ID]; ok && se.FreshFor(job, c.model) {
			e := owned[job.ID]
			e.vector = se.Vector
			close(e.done)
			c.storeHits.Add(1)
			continue
		}
		pending = append(pending, job)
	}
	return pending
}

func (c *Cache) fail(jobs []*core.Job, owned map[string]*entry, err error) {
	c.failures.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, job := range jobs {
		e := owned[job.ID]
		e.err = err
		if c.entries[job.ID] == e {
			delete(c.entries, job.ID)
		}
		close(e.done)
	}
}

// Invalidate drops every cached vector and clears the durable store.
// Computations already in flight still complete for their callers but are
// not persisted.
func (c *Cache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	dropped := len(c.entries)
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	c.logger.Info("embedding cache invalidated", "dropped", dropped)
	if c.store != nil {
		if err := c.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear vector store: %w", err)
		}
	}
	return nil
}

// Len returns the number of completed vectors held in memory.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.ready() && e.err == nil {
			n++
		}
	}
	return n
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Hits:      c.hits.Load(),
		Waits:     c.waits.Load(),
		StoreHits: c.storeHits.Load(),
		Embedded:  c.embedded.Load(),
		Batches:   c.batches.Load(),
		Failures:  c.failures.Load(),
	}
}
