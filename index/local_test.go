package index

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerstore "github.com/poiesic/docdex/storage/badger"
)

func newTestIndex(t *testing.T) *Local {
	t.Helper()

	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	return NewLocal(repos.Vectors)
}

func TestLocal_UpsertAndQuery(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
	}
	metadata := []map[string]string{
		{"owner": "alice", "unit": "first paragraph"},
		{"owner": "alice", "unit": "second paragraph"},
	}

	count, err := idx.Upsert(ctx, "docs", vectors, metadata)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	matches, err := idx.Query(ctx, "docs", []float32{1, 0, 0}, 1, false, true)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "first paragraph", matches[0].Metadata["unit"])
	assert.InDelta(t, 1.0, matches[0].Score, 1e-4)

	// IDs are generated and must parse as UUIDs.
	_, err = uuid.Parse(matches[0].ID)
	assert.NoError(t, err)
}

func TestLocal_Upsert_LengthMismatch(t *testing.T) {
	idx := newTestIndex(t)

	_, err := idx.Upsert(context.Background(), "docs", [][]float32{{1}}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestLocal_Upsert_EmptyBatch(t *testing.T) {
	idx := newTestIndex(t)

	count, err := idx.Upsert(context.Background(), "docs", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestLocal_Query_InvalidTopK(t *testing.T) {
	idx := newTestIndex(t)

	_, err := idx.Query(context.Background(), "docs", []float32{1}, 0, false, false)
	assert.ErrorIs(t, err, ErrInvalidTopK)
}

func TestLocal_DefaultNamespace(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Upsert(ctx, "", [][]float32{{0, 1}}, []map[string]string{{"k": "v"}})
	require.NoError(t, err)

	matches, err := idx.Query(ctx, DefaultNamespace, []float32{0, 1}, 5, false, true)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "v", matches[0].Metadata["k"])
}
