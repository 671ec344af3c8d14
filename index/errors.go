package index

import "errors"

var (
	// ErrLengthMismatch indicates the vectors and metadata slices given
	// to Upsert differ in length.
	ErrLengthMismatch = errors.New("vectors and metadata must be the same length")

	// ErrInvalidTopK indicates a non-positive topK was given to Query.
	ErrInvalidTopK = errors.New("topK must be positive")
)
