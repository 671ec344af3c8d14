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


package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/poiesic/docdex/core"
	"github.com/poiesic/docdex/storage"
)

// Local is a VectorIndex backed by a storage.VectorRepository. Each
// upserted vector receives a fresh UUID record ID.
type Local struct {
	vectors storage.VectorRepository
	logger  *slog.Logger
}

// NewLocal creates a Local index over the given vector repository.
func NewLocal(vectors storage.VectorRepository) *Local {
	return &Local{
		vectors: vectors,
		logger:  slog.Default().With("component", "local-index"),
	}
}

// Upsert implements VectorIndex.
func (l *Local) Upsert(ctx context.Context, namespace string, vectors [][]float32, metadata []map[string]string) (int, error) {
	if len(vectors) != len(metadata) {
		return 0, fmt.Errorf("%w: %d vectors, %d metadata", ErrLengthMismatch, len(vectors), len(metadata))
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	records := make([]*core.VectorRecord, len(vectors))
	for i, values := range vectors {
		records[i] = &core.VectorRecord{
			ID:       uuid.NewString(),
			Values:   values,
			Metadata: metadata[i],
		}
	}

	count, err := l.vectors.Upsert(ctx, namespace, records)
	if err != nil {
		l.logger.Error("vector upsert failed", "namespace", namespace, "count", len(records), "err", err)
		return 0, err
	}

	l.logger.Debug("upserted vectors", "namespace", namespace, "count", count)
	return count, nil
}

// Query implements VectorIndex.
func (l *Local) Query(ctx context.Context, namespace string, vector []float32, topK int, includeValues, includeMetadata bool) ([]*core.VectorMatch, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopK, topK)
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	matches, err := l.vectors.Query(ctx, namespace, vector, topK, includeValues, includeMetadata)
	if err != nil {
		l.logger.Error("vector query failed", "namespace", namespace, "err", err)
		return nil, err
	}

	return matches, nil
}
