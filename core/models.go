package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ContentHash is the content-addressed identity of an uploaded file,
// computed from the raw file bytes.
type ContentHash string

// HashBytes computes the ContentHash for a blob of file bytes using BLAKE2b.
// Identical bytes always produce the same hash, so re-uploading the same file
// resolves to the same document record.
func HashBytes(data []byte) ContentHash {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits, hex-encoded
	h.Write(data)
	return ContentHash(hex.EncodeToString(h.Sum(nil)))
}

// ProcessingStatus tracks where a document is in the OCR/embedding pipeline.
// It only ever advances NOT_STARTED -> PENDING -> SUCCESS; it never regresses
// except through an administrative reset.
type ProcessingStatus int

const (
	// StatusNotStarted means the document is uploaded but unprocessed.
	StatusNotStarted ProcessingStatus = iota + 1
	// StatusPending means a pipeline job has accepted the document.
	// This is the single in-flight value; it doubles as the guard against
	// a second job picking up the same document.
	StatusPending
	// StatusSuccess means every batch has been embedded and indexed.
	StatusSuccess
)

// String returns the stable wire name for the status.
func (s ProcessingStatus) String() string {
	switch s {
	case StatusNotStarted:
		return "NOT_STARTED"
	case StatusPending:
		return "PENDING"
	case StatusSuccess:
		return "SUCCESS"
	default:
		return "UNKNOWN"
	}
}

// Document represents one uploaded file and its processing state.
// At most one Document exists per (Hash, Owner) pair.
type Document struct {
	Hash          ContentHash
	Owner         string
	Ext           string
	FileName      string
	URL           string // storage location the bytes are fetched from
	Status        ProcessingStatus
	SchemaVersion int
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// RateCounter is a fixed-window rate-limit counter. An expired counter is
// treated as absent; the next access recreates it with a fresh window.
type RateCounter struct {
	Count     uint64
	ExpiresAt time.Time
}

// Expired reports whether the counter's window has elapsed at the given time.
func (c *RateCounter) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// JobState is the lifecycle state of an asynchronous pipeline job.
type JobState int

const (
	// JobStateQueued means the job is accepted but not yet running.
	JobStateQueued JobState = iota + 1
	// JobStateRunning means a worker is executing the job.
	JobStateRunning
	// JobStateRetrying means the job is waiting on the provider-rate
	// throttle before (re)entering the pipeline.
	JobStateRetrying
	// JobStateFailed means the job finished with an error result.
	JobStateFailed
	// JobStateSucceeded means the job finished with a data result.
	JobStateSucceeded
)

// String returns the stable wire name for the job state.
func (s JobState) String() string {
	switch s {
	case JobStateQueued:
		return "queued"
	case JobStateRunning:
		return "running"
	case JobStateRetrying:
		return "retrying"
	case JobStateFailed:
		return "failed"
	case JobStateSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == JobStateFailed || s == JobStateSucceeded
}

// Job represents one asynchronous pipeline execution. Callers receive the
// job ID at submission and poll for the state; once terminal, Result holds
// the serialized task result.
type Job struct {
	ID         string
	URL        string
	Owner      string
	State      JobState
	Result     string // JSON task result, populated when the job is terminal
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// VectorRecord is one embedding vector plus its metadata, as stored in a
// vector index namespace.
type VectorRecord struct {
	ID       string
	Values   []float32
	Metadata map[string]string
}

// VectorMatch is one similarity-search hit from a vector index query.
// Values and Metadata are populated only when requested.
type VectorMatch struct {
	ID       string
	Score    float32
	Values   []float32
	Metadata map[string]string
}
