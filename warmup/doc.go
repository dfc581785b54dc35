// Package warmup precomputes job embeddings so the first searches do not pay
// for embedding the whole corpus.
//
// Jobs are split into batches that a bounded worker pool pushes through the
// embedding cache. Provider calls are rate limited and retried with
// exponential backoff; progress can be reported to a writer.
package warmup
