package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := Document{
		Hash:          HashBytes([]byte("round trip")),
		Owner:         "user-1",
		Ext:           "pdf",
		FileName:      "contract.pdf",
		URL:           "https://cdn.example.com/contract.pdf",
		Status:        StatusPending,
		SchemaVersion: 1,
		InsertedAt:    now,
		UpdatedAt:     now.Add(time.Second),
	}

	bs := make([]byte, DocumentMUS.Size(doc))
	n := DocumentMUS.Marshal(doc, bs)
	assert.Equal(t, len(bs), n)

	got, n, err := DocumentMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, doc, got)
}

func TestDocumentMUS_ZeroTimestamps(t *testing.T) {
	doc := Document{Hash: "abc", Owner: "u", URL: "https://x", Status: StatusNotStarted}

	bs := make([]byte, DocumentMUS.Size(doc))
	DocumentMUS.Marshal(doc, bs)

	got, _, err := DocumentMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.True(t, got.InsertedAt.IsZero())
	assert.True(t, got.UpdatedAt.IsZero())
}

func TestRateCounterMUS_RoundTrip(t *testing.T) {
	counter := RateCounter{
		Count:     42,
		ExpiresAt: time.Now().UTC().Truncate(time.Microsecond).Add(30 * time.Second),
	}

	bs := make([]byte, RateCounterMUS.Size(counter))
	RateCounterMUS.Marshal(counter, bs)

	got, _, err := RateCounterMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, counter, got)
}

func TestJobMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	job := Job{
		ID:         "c7f9e9a0-8d3e-4e0f-9a3b-000000000001",
		URL:        "https://cdn.example.com/contract.pdf",
		Owner:      "user-1",
		State:      JobStateSucceeded,
		Result:     `{"data":{"upserted_count":3},"error":null}`,
		InsertedAt: now,
		UpdatedAt:  now,
	}

	bs := make([]byte, JobMUS.Size(job))
	JobMUS.Marshal(job, bs)

	got, _, err := JobMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestVectorRecordMUS_RoundTrip(t *testing.T) {
	rec := VectorRecord{
		ID:     "vec-1",
		Values: []float32{0.25, -1.5, 0, 3.14159},
		Metadata: map[string]string{
			"owner":        "user-1",
			"content_hash": "abc123",
			"model":        "text-embedding-3-small",
		},
	}

	bs := make([]byte, VectorRecordMUS.Size(rec))
	n := VectorRecordMUS.Marshal(rec, bs)
	assert.Equal(t, len(bs), n)

	got, _, err := VectorRecordMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestVectorRecordMUS_DeterministicMetadata(t *testing.T) {
	rec := VectorRecord{
		ID:       "vec-1",
		Values:   []float32{1},
		Metadata: map[string]string{"b": "2", "a": "1", "c": "3"},
	}

	first := make([]byte, VectorRecordMUS.Size(rec))
	VectorRecordMUS.Marshal(rec, first)
	second := make([]byte, VectorRecordMUS.Size(rec))
	VectorRecordMUS.Marshal(rec, second)

	assert.Equal(t, first, second)
}

func TestVectorRecordMUS_TruncatedData(t *testing.T) {
	rec := VectorRecord{ID: "vec-1", Values: []float32{1, 2, 3}}

	bs := make([]byte, VectorRecordMUS.Size(rec))
	VectorRecordMUS.Marshal(rec, bs)

	_, _, err := VectorRecordMUS.Unmarshal(bs[:len(bs)/2])
	assert.Error(t, err)
}
