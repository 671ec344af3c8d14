// Package ocr models optical character recognition output and provides
// the token-budget chunker that packs recognized paragraphs into batches
// suitable for embedding.
//
// Recognition itself happens out of process. This package consumes the
// result documents an analysis service produces, keyed by the content
// hash of the source file, and prepares them for the ingestion pipeline.
package ocr
