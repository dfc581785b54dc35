package warmup

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrCorpusRequired is returned when a corpus source is not provided.
	ErrCorpusRequired = errors.New("corpus source required")

	// ErrCacheRequired is returned when a vector cache is not provided.
	ErrCacheRequired = errors.New("vector cache required")
)
