package badger

import (
	"context"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docdex/core"
	"github.com/poiesic/docdex/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
//
// Vectors are normalized to unit length on upsert, so cosine similarity
// reduces to a dot product at query time.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(backend *Backend) (*VectorRepository, error) {
	return &VectorRepository{backend: backend}, nil
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *VectorRepository) Close() error {
	return nil
}

// Upsert inserts or replaces vector records in a namespace, in input order.
func (r *VectorRepository) Upsert(ctx context.Context, namespace string, records []*core.VectorRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	err := r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		for _, record := range records {
			stored := &core.VectorRecord{
				ID:       record.ID,
				Values:   NormalizeVector(record.Values),
				Metadata: record.Metadata,
			}
			key := makeVectorKey(namespace, record.ID)
			if err := tx.Set(key, storage.MarshalVectorRecord(stored)); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Query returns the topK records of a namespace most similar to the given
// vector, ordered by score descending.
func (r *VectorRepository) Query(ctx context.Context, namespace string, vector []float32, topK int, includeValues, includeMetadata bool) ([]*core.VectorMatch, error) {
	if topK <= 0 {
		return nil, nil
	}
	query := NormalizeVector(vector)

	var matches []*core.VectorMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeVectorNamespacePrefix(namespace)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.VectorRecord
			err := iter.Item().Value(func(val []byte) error {
				var valErr error
				record, valErr = storage.UnmarshalVectorRecord(val)
				return valErr
			})
			if err != nil {
				return err
			}
			if record == nil || len(record.Values) == 0 {
				continue
			}

			match := &core.VectorMatch{
				ID:    record.ID,
				Score: dotProduct(query, record.Values),
			}
			if includeValues {
				match.Values = record.Values
			}
			if includeMetadata {
				match.Metadata = record.Metadata
			}
			matches = append(matches, match)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(matches, func(a, b *core.VectorMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	// Can't normalize zero vector
	if magnitude == 0 {
		result := make([]float32, len(v))
		return result
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
