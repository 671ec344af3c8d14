// Package jobs provides asynchronous execution of the ingestion
// pipeline with persisted job state for polling.
//
// A Dispatcher accepts submissions without blocking, runs each job on a
// bounded worker pool, and records every state transition in the job
// store so callers can poll progress across process restarts. Pipeline
// executions are additionally throttled by a provider-side rate
// limiter, independent of the per-user quotas enforced upstream.
package jobs
