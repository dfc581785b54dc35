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


package search

import "errors"

var (
	// ErrCorpusRequired is returned when a corpus source is not provided.
	ErrCorpusRequired = errors.New("corpus source required")

	// ErrVectorsRequired is returned when a vector source is not provided.
	ErrVectorsRequired = errors.New("vector source required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidFilters is returned when caller filters contradict each other.
	ErrInvalidFilters = errors.New("invalid filters")
)
