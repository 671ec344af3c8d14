package ingestion

import "errors"

var (
	// ErrFetcherRequired is returned when a fetcher is not provided.
	ErrFetcherRequired = errors.New("fetcher required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrLookupRequired is returned when an OCR result lookup is not provided.
	ErrLookupRequired = errors.New("ocr lookup required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrResultSides is returned when a TaskResult does not have exactly
	// one of data and error set.
	ErrResultSides = errors.New("task result must have exactly one of data or error")
)
