// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/poiesic/docdex/core"
	"github.com/poiesic/docdex/ingestion"
	"github.com/poiesic/docdex/storage"
)

var (
	// ErrPipelineRequired is returned when a pipeline is not provided.
	ErrPipelineRequired = errors.New("pipeline required")

	// ErrJobRepositoryRequired is returned when a job repository is not provided.
	ErrJobRepositoryRequired = errors.New("job repository required")

	// ErrDispatcherSaturated indicates the worker pool is full and the
	// submission was rejected.
	ErrDispatcherSaturated = errors.New("dispatcher saturated")
)

// defaultProviderRate bounds pipeline executions per second across all
// workers, protecting the embedding provider from burst load.
const defaultProviderRate = 10

// Dispatcher runs pipeline jobs asynchronously on a bounded worker
// pool. Submissions never block: a saturated pool rejects the job at
// submit time.
type Dispatcher struct {
	pipeline *ingestion.Pipeline
	jobs     storage.JobRepository
	pool     *ants.Pool
	throttle *rate.Limiter
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithPoolSize sets the worker pool size, capping concurrent in-flight
// jobs. Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(d *Dispatcher) error {
		if size < 1 {
			size = 1
		}
		if d.pool != nil {
			d.pool.Release()
		}

		pool, err := ants.NewPool(size, ants.WithNonblocking(true))
		if err != nil {
			return err
		}
		d.pool = pool
		return nil
	}
}

// WithProviderRate sets the maximum pipeline executions per second.
// Default is 10.
func WithProviderRate(perSecond float64) Option {
	return func(d *Dispatcher) error {
		if perSecond <= 0 {
			return errors.New("provider rate must be positive")
		}
		d.throttle = rate.NewLimiter(rate.Limit(perSecond), 1)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDispatcher creates a Dispatcher over the given pipeline and job
// store.
func NewDispatcher(pipeline *ingestion.Pipeline, jobs storage.JobRepository, opts ...Option) (*Dispatcher, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if jobs == nil {
		return nil, ErrJobRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		pipeline: pipeline,
		jobs:     jobs,
		pool:     pool,
		throttle: rate.NewLimiter(rate.Limit(defaultProviderRate), 1),
		logger:   slog.Default().With("component", "dispatcher"),
	}

	for _, opt := range opts {
		if optErr := opt(d); optErr != nil {
			d.pool.Release()
			return nil, optErr
		}
	}

	return d, nil
}

// Submit persists a queued job for the document at url owned by owner
// and schedules it on the worker pool. It returns the job ID
// immediately; callers poll Status for the outcome. A saturated pool
// returns ErrDispatcherSaturated and records the job as failed.
func (d *Dispatcher) Submit(ctx context.Context, url, owner string) (string, error) {
	job := &core.Job{
		ID:    uuid.NewString(),
		URL:   url,
		Owner: owner,
		State: core.JobStateQueued,
	}
	if err := core.ValidateJob(job); err != nil {
		return "", err
	}

	if err := d.jobs.Insert(ctx, job); err != nil {
		return "", fmt.Errorf("failed to persist job: %w", err)
	}

	if err := d.pool.Submit(func() { d.run(job.ID, url, owner) }); err != nil {
		// Leave the queued record behind so the rejection is visible to
		// pollers, but mark it failed.
		d.failJob(job.ID, "worker pool saturated")
		return "", fmt.Errorf("%w: %v", ErrDispatcherSaturated, err)
	}

	d.logger.Debug("job submitted", "job_id", job.ID, "owner", owner)
	return job.ID, nil
}

// Status retrieves a job by ID for polling.
func (d *Dispatcher) Status(ctx context.Context, jobID string) (*core.Job, error) {
	return d.jobs.Get(ctx, jobID)
}

// Release stops the worker pool. In-flight jobs finish; queued
// submissions are dropped. The dispatcher should not be used after
// calling Release.
func (d *Dispatcher) Release() {
	d.pool.Release()
}

// run executes one job. Jobs run on a background context: submission
// contexts belong to the caller and mid-job cancellation is not
// supported.
func (d *Dispatcher) run(jobID, url, owner string) {
	ctx := context.Background()
	logger := d.logger.With("job_id", jobID, "owner", owner)

	// Wait for provider-rate headroom before doing any work. The job is
	// visible as retrying while it waits.
	if !d.throttle.Allow() {
		if err := d.jobs.UpdateState(ctx, jobID, core.JobStateRetrying); err != nil {
			logger.Error("failed to mark job retrying", "err", err)
		}
		if err := d.throttle.Wait(ctx); err != nil {
			d.failJob(jobID, fmt.Sprintf("throttle wait failed: %v", err))
			return
		}
	}

	if err := d.jobs.UpdateState(ctx, jobID, core.JobStateRunning); err != nil {
		logger.Error("failed to mark job running", "err", err)
	}

	result, err := d.pipeline.Process(ctx, url, owner)
	if err != nil {
		d.failJob(jobID, fmt.Sprintf("pipeline aborted: %v", err))
		return
	}

	serialized, err := json.Marshal(result)
	if err != nil {
		d.failJob(jobID, fmt.Sprintf("failed to serialize result: %v", err))
		return
	}

	state := core.JobStateFailed
	if result.Succeeded() {
		state = core.JobStateSucceeded
	}

	if err := d.jobs.SetResult(ctx, jobID, state, string(serialized)); err != nil {
		logger.Error("failed to persist job result", "err", err)
		return
	}

	logger.Info("job finished", "state", state)
}

// failJob records a terminal failure with a synthetic TaskResult so
// pollers always find a well-formed result on failed jobs.
func (d *Dispatcher) failJob(jobID, message string) {
	result := &ingestion.TaskResult{
		Error: &ingestion.TaskError{Code: ingestion.CodeInternal, Message: message},
	}
	serialized, err := json.Marshal(result)
	if err != nil {
		serialized = []byte(`{"error":{"code":"internal","message":"job failed"}}`)
	}

	if err := d.jobs.SetResult(context.Background(), jobID, core.JobStateFailed, string(serialized)); err != nil {
		d.logger.Error("failed to record job failure", "job_id", jobID, "err", err)
	}
}
