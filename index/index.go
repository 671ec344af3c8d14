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


// Package index exposes the vector index the ingestion pipeline writes
// to and the search path reads from. The interface mirrors the upsert
// and query surface of hosted vector databases so a remote
// implementation can replace the local one without touching callers.
package index

import (
	"context"

	"github.com/poiesic/docdex/core"
)

// DefaultNamespace is used when callers pass an empty namespace.
const DefaultNamespace = "default"

// VectorIndex stores embedding vectors with attached metadata and
// answers nearest-neighbor queries over them.
type VectorIndex interface {
	// Upsert writes one vector per entry of vectors, pairing it with
	// the metadata at the same position. It returns the number of
	// vectors written. Vectors and metadata must be the same length.
	Upsert(ctx context.Context, namespace string, vectors [][]float32, metadata []map[string]string) (int, error)

	// Query returns the topK closest vectors to the query vector in
	// descending similarity order.
	Query(ctx context.Context, namespace string, vector []float32, topK int, includeValues, includeMetadata bool) ([]*core.VectorMatch, error)
}
