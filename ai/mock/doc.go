// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder and ai.AIProvider
// for use in unit tests. The mocks allow tests to run without an embedding
// service and give controlled, deterministic vectors.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Pinned vectors for ranking tests
//	mockEmbedder := mock.NewMockEmbedder().
//	    WithVector("go engineer", []float32{1, 0, 0})
//
//	// Check call counts
//	batches := mockEmbedder.BatchCalls()
//
// # Default Behavior
//
//   - MockEmbedder: Returns unit-length deterministic vectors based on text hash
//   - MockProvider: Wraps a MockEmbedder and reports MockModel
package mock
