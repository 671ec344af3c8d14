package storage

import (
	"context"
	"time"

	"github.com/poiesic/docdex/core"
)

// DocumentRepository provides operations for managing uploaded document
// records, keyed by (content hash, owner).
type DocumentRepository interface {
	// Insert adds a document record. Sets InsertedAt/UpdatedAt timestamps.
	// Returns ErrDuplicateKey if a record for (Hash, Owner) already exists.
	Insert(ctx context.Context, doc *core.Document) error

	// Find retrieves the record for (hash, owner).
	// Returns ErrNotFound if no record exists.
	Find(ctx context.Context, hash core.ContentHash, owner string) (*core.Document, error)

	// UpdateStatus unconditionally sets the processing status.
	// Returns ErrNotFound if no record exists.
	UpdateStatus(ctx context.Context, hash core.ContentHash, owner string, status core.ProcessingStatus) error

	// SetStatusIf atomically sets the status to `to` only when the current
	// status equals `from`. Returns (false, nil) when the current status
	// differs, (true, nil) on a successful swap. This is the linearization
	// point for at-most-once document processing.
	SetStatusIf(ctx context.Context, hash core.ContentHash, owner string, from, to core.ProcessingStatus) (bool, error)

	// ResetStatus administratively resets the status to NOT_STARTED,
	// allowing a document stuck in PENDING after a partial failure to be
	// resubmitted. Returns ErrNotFound if no record exists.
	ResetStatus(ctx context.Context, hash core.ContentHash, owner string) error

	// Close releases repository resources.
	Close() error
}

// CounterRepository provides the shared fixed-window rate-limit counters.
type CounterRepository interface {
	// Increment applies one fixed-window rate-limit check for
	// (subject, action) and returns true when the call is rate-limited.
	//
	// Semantics: a missing or expired counter is created with count 1 and
	// expiry now+window (not limited); a counter at or above limit is left
	// untouched (limited); otherwise the count is incremented (not
	// limited). The whole check-and-increment is atomic per key.
	//
	// A store failure is returned as an error, never as a limit decision.
	Increment(ctx context.Context, subject, action string, limit uint64, window time.Duration) (bool, error)

	// Close releases repository resources.
	Close() error
}

// JobRepository persists asynchronous pipeline jobs for status polling.
type JobRepository interface {
	// Insert adds a job record. Sets InsertedAt/UpdatedAt timestamps.
	// Returns ErrDuplicateKey if the job ID already exists.
	Insert(ctx context.Context, job *core.Job) error

	// Get retrieves a job by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*core.Job, error)

	// UpdateState sets the job state. Returns ErrNotFound if the job
	// doesn't exist.
	UpdateState(ctx context.Context, id string, state core.JobState) error

	// SetResult sets a terminal state together with the serialized task
	// result. Returns ErrNotFound if the job doesn't exist.
	SetResult(ctx context.Context, id string, state core.JobState, result string) error

	// Close releases repository resources.
	Close() error
}

// VectorRepository stores embedding vectors with metadata, partitioned by
// namespace.
type VectorRepository interface {
	// Upsert inserts or replaces vector records in a namespace and returns
	// the number of records written. Records are written in input order.
	Upsert(ctx context.Context, namespace string, records []*core.VectorRecord) (int, error)

	// Query returns the topK records of a namespace most similar to the
	// given vector, ordered by score descending. Values and metadata are
	// included in matches only when requested.
	Query(ctx context.Context, namespace string, vector []float32, topK int, includeValues, includeMetadata bool) ([]*core.VectorMatch, error)

	// Close releases repository resources.
	Close() error
}
