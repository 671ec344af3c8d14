// Package storage defines the persistence interfaces for the document
// ingestion core and the serialization helpers shared by backends.
//
// Four repositories cover the shared state of the system:
//   - DocumentRepository: uploaded document records and their processing
//     status, including the conditional status update the pipeline uses as
//     its at-most-once guard.
//   - CounterRepository: fixed-window rate-limit counters with expiry.
//   - JobRepository: asynchronous pipeline jobs polled by callers.
//   - VectorRepository: embedding vectors with metadata, upserted per batch
//     and queryable by similarity.
//
// Implementations must be thread-safe and keyed-record atomic: concurrent
// mutations of the same key must not lose updates.
package storage
