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


// Package search provides semantic job search with adaptive filtering.
//
// The Searcher type runs a fixed pipeline for every query:
//   - Classify the query text into facets and pick a threshold and cap
//   - Rank every job by cosine similarity to the query embedding
//   - Drop jobs below the threshold, then apply the structured filters
//   - Truncate to the cap and assemble the response with an explanation
//
// Each narrowing stage is recorded as a Step with before and after counts.
// Filters that need company data keep a job whose employer is unknown.
package search
