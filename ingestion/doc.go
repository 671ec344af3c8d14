// Package ingestion provides pipeline orchestration for processing
// uploaded documents.
//
// The Pipeline type drives a document from its uploaded bytes to
// vectors in the index:
//   - Fetching the source bytes and verifying the upload record
//   - Claiming the document so it is processed at most once
//   - Chunking recognized paragraphs within a token budget
//   - Embedding each batch and upserting the vectors with metadata
//
// Process always returns a TaskResult: a tagged union carrying either
// the upsert acknowledgment or a coded error, never both.
package ingestion
