package storage

import (
	"context"

	"github.com/poiesic/jobsift/core"
)

// RecordSource provides read access to the raw job corpus.
// Implementations must be safe for concurrent calls; the corpus loader fetches
// all three collections at the same time.
type RecordSource interface {
	// Jobs returns every job record in source order.
	// A missing or unreadable collection is an error, never an empty slice.
	Jobs(ctx context.Context) ([]core.JobRecord, error)

	// Companies returns every company record in source order.
	Companies(ctx context.Context) ([]core.CompanyRecord, error)

	// Locations returns every location record in source order.
	Locations(ctx context.Context) ([]core.LocationRecord, error)
}

// VectorStore persists job embeddings across restarts.
// Implementations must be thread-safe and support concurrent access.
type VectorStore interface {
	// GetVectors returns the stored entries for the given job IDs.
	// Missing IDs are absent from the result map (no error).
	GetVectors(ctx context.Context, jobIDs ...string) (map[string]*core.EmbeddingEntry, error)

	// PutVectors stores or replaces entries keyed by JobID.
	PutVectors(ctx context.Context, entries ...*core.EmbeddingEntry) error

	// Clear removes every stored entry.
	Clear(ctx context.Context) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying storage.
	Close() error
}
