package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
)

// DefaultDimension is the length of vectors produced by the default behavior.
const DefaultDimension = 384

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields and is safe for
// concurrent use.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	mu      sync.RWMutex
	vectors map[string][]float32

	singleCalls   atomic.Int64
	batchCalls    atomic.Int64
	textsEmbedded atomic.Int64
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockEmbedder().
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{vectors: make(map[string][]float32)}
}

// WithVector pins the vector returned for an exact text.
func (m *MockEmbedder) WithVector(text string, vector []float32) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[text] = vector
	return m
}

// WithVectors pins vectors for several texts at once.
func (m *MockEmbedder) WithVectors(vectors map[string][]float32) *MockEmbedder {
	for text, v := range vectors {
		m.WithVector(text, v)
	}
	return m
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.singleCalls.Add(1)
	m.textsEmbedded.Add(1)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.vectorFor(text), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls.Add(1)
	m.textsEmbedded.Add(int64(len(texts)))

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = m.vectorFor(text)
	}
	return embeddings, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return int(m.singleCalls.Load() + m.batchCalls.Load())
}

// SingleCalls returns the number of EmbedText calls.
func (m *MockEmbedder) SingleCalls() int {
	return int(m.singleCalls.Load())
}

// BatchCalls returns the number of EmbedTexts calls.
func (m *MockEmbedder) BatchCalls() int {
	return int(m.batchCalls.Load())
}

// TextsEmbedded returns the total number of texts passed to either method.
func (m *MockEmbedder) TextsEmbedded() int {
	return int(m.textsEmbedded.Load())
}

// Reset clears the counters and injected behavior.
func (m *MockEmbedder) Reset() {
	m.singleCalls.Store(0)
	m.batchCalls.Store(0)
	m.textsEmbedded.Store(0)
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
	m.mu.Lock()
	m.vectors = make(map[string][]float32)
	m.mu.Unlock()
}

func (m *MockEmbedder) vectorFor(text string) []float32 {
	m.mu.RLock()
	v, ok := m.vectors[text]
	m.mu.RUnlock()
	if ok {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	return DeterministicVector(text, DefaultDimension)
}

// DeterministicVector creates a unit-length embedding vector from text.
// It uses FNV hash so the same text always produces the same vector.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
