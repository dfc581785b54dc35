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


package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/jobsift/core"
	"github.com/poiesic/jobsift/storage"
)

// VectorStore implements storage.VectorStore for BadgerDB.
type VectorStore struct {
	backend   *Backend
	ownsStore bool
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore opens a durable vector store in dir.
//
// Returns storage.VectorStore interface to enforce abstraction.
func NewVectorStore(dir string) (storage.VectorStore, error) {
	backend, err := OpenBackend(dir, false)
	if err != nil {
		return nil, err
	}
	return &VectorStore{backend: backend, ownsStore: true}, nil
}

// NewVectorStoreWithBackend creates a vector store over an existing backend.
// Closing the store does not close the backend.
func NewVectorStoreWithBackend(backend *Backend) *VectorStore {
	return &VectorStore{backend: backend}
}

// GetVectors returns stored entries for the given job IDs.
// Entries that fail to decode are skipped and logged; they are recomputed
// and overwritten on the next embedding pass.
func (s *VectorStore) GetVectors(ctx context.Context, jobIDs ...string) (map[string]*core.EmbeddingEntry, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	out := make(map[string]*core.EmbeddingEntry, len(jobIDs))
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range jobIDs {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makeVectorKey(id))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				entry, err := storage.UnmarshalEmbeddingEntry(val)
				if err != nil {
					s.backend.logger.Warn("skipping undecodable vector", "job_id", id, "err", err)
					return nil
				}
				out[id] = entry
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutVectors stores or replaces entries keyed by JobID.
// Large batches are split across transactions when Badger reports the
// transaction is too big.
func (s *VectorStore) PutVectors(ctx context.Context, entries ...*core.EmbeddingEntry) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if len(entries) == 0 {
		return nil
	}

	pending := entries
	for len(pending) > 0 {
		written := 0
		err := s.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
			for _, entry := range pending {
				if entry.CreatedAt.IsZero() {
					entry.CreatedAt = time.Now().UTC()
				}
				err := tx.Set(makeVectorKey(entry.JobID), storage.MarshalEmbeddingEntry(entry))
				if errors.Is(err, badger.ErrTxnTooBig) && written > 0 {
					return nil
				}
				if err != nil {
					return fmt.Errorf("store vector %q: %w", entry.JobID, err)
				}
				written++
			}
			return nil
		})
		if err != nil {
			return err
		}
		pending = pending[written:]
	}
	return nil
}

// Clear removes every stored vector.
func (s *VectorStore) Clear(ctx context.Context) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return s.backend.DropPrefix([]byte(vectorPrefix))
}

// Count returns the number of stored vectors.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	if s.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if _, ok := jobIDFromVectorKey(iter.Item().Key()); ok {
				count++
			}
		}
		return nil
	}, false)
	return count, err
}

// Close closes the backend if the store opened it.
func (s *VectorStore) Close() error {
	if !s.ownsStore || s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}
