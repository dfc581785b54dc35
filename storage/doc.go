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


// Package storage provides the storage abstraction layer for jobsift.
//
// Two interfaces decouple the engine from its backing stores:
//
//   - RecordSource: read access to the raw job, company and location collections
//   - VectorStore: optional durable persistence of job embeddings
//
// # Implementations
//
//   - storage/csv: RecordSource over jobs.csv, companies.csv and addresses.csv
//   - storage/sqlite: RecordSource over a SQLite database, plus CSV import
//   - storage/badger: VectorStore over BadgerDB
//
// # Constructor Return Type Pattern
//
// Public constructors return the interface, not the concrete type:
//
//	source, err := csv.NewSource(dir)          // returns storage.RecordSource
//	vectors, err := badger.NewVectorStore(dir) // returns storage.VectorStore
//
// Internal constructors (newSource, newVectorStore, etc.) may return concrete
// types since they're only used within the implementation package.
//
// # Serialization
//
// Embedding entries are encoded with mus-go: a version prefix, then the job ID,
// fingerprint, model, creation time in Unix microseconds and the vector.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
