package ocr

import "errors"

var (
	// ErrResultNotFound indicates no recognition result exists for the
	// requested content hash.
	ErrResultNotFound = errors.New("ocr result not found")

	// ErrInvalidBudget indicates a non-positive token budget was given
	// to the chunker.
	ErrInvalidBudget = errors.New("token budget must be positive")
)
