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


package core

import "errors"

// Search error taxonomy
var (
	// ErrDataUnavailable indicates a backing record collection is missing or unreadable.
	// Searches fail with this error rather than returning an empty result.
	ErrDataUnavailable = errors.New("job data unavailable")

	// ErrEmbeddingProvider indicates the embedding provider failed or timed out.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrMalformedRecord indicates a single record could not be parsed.
	// The loader recovers with fallback values; it never reaches callers of Search.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnresolvedJoin indicates a job's employer has no matching company record.
	// Company-based filters keep such jobs.
	ErrUnresolvedJoin = errors.New("unresolved company join")

	// ErrEmptyQuery indicates the search query is blank.
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// Record validation errors
var (
	// ErrMissingID indicates the record has no identifier.
	ErrMissingID = errors.New("missing identifier")

	// ErrMissingTitle indicates a job record has no title.
	ErrMissingTitle = errors.New("missing title")

	// ErrMissingEmployer indicates a job record has no employer name.
	ErrMissingEmployer = errors.New("missing employer")

	// ErrMissingName indicates a company record has no name.
	ErrMissingName = errors.New("missing company name")

	// ErrInvalidNumber indicates a numeric field could not be parsed.
	ErrInvalidNumber = errors.New("invalid number")
)
