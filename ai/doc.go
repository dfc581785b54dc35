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


// Package ai provides abstractions for the embedding provider used by jobsift.
//
// The search engine depends only on the Embedder interface. Job texts are
// embedded in batches through EmbedTexts and cached by the embedcache package;
// queries go through EmbedText on every search.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/resilient: timeout and circuit breaker decorator for any Embedder
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, resilient.Wrap)
// return INTERFACE types. Test constructors (mock.NewMockEmbedder) return
// CONCRETE types so tests can inject behavior and assert on call counts.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//	mockEmbed := mock.NewMockEmbedder()          // returns *mock.MockEmbedder
//	count := mockEmbed.BatchCalls()              // test assertion
//
// # Credentials
//
// ResolveAPIKey looks for a key in an explicit value, the JOBSIFT_API_KEY
// environment variable and the OS keychain, in that order. Local servers such
// as Ollama need no key.
package ai
