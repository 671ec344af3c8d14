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


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docdex/core"
	"github.com/poiesic/docdex/storage"
)

// JobRepository implements storage.JobRepository for BadgerDB.
type JobRepository struct {
	backend *Backend
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) (*JobRepository, error) {
	return &JobRepository{backend: backend}, nil
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *JobRepository) Close() error {
	return nil
}

// Insert adds a job record, rejecting duplicate IDs.
func (r *JobRepository) Insert(ctx context.Context, job *core.Job) error {
	if err := core.ValidateJob(job); err != nil {
		return err
	}

	return r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		key := makeJobKey(job.ID)

		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrDuplicateKey
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		job.InsertedAt = time.Now().UTC()
		job.UpdatedAt = job.InsertedAt

		if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// Get retrieves a job by ID.
func (r *JobRepository) Get(ctx context.Context, id string) (*core.Job, error) {
	var job *core.Job
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		job, err = r.readJob(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateState sets the job state.
func (r *JobRepository) UpdateState(ctx context.Context, id string, state core.JobState) error {
	if err := core.ValidateJobState(state); err != nil {
		return err
	}
	return r.mutate(ctx, id, func(job *core.Job) {
		job.State = state
	})
}

// SetResult sets a terminal state with the serialized task result.
func (r *JobRepository) SetResult(ctx context.Context, id string, state core.JobState, result string) error {
	if err := core.ValidateJobState(state); err != nil {
		return err
	}
	return r.mutate(ctx, id, func(job *core.Job) {
		job.State = state
		job.Result = result
	})
}

func (r *JobRepository) mutate(ctx context.Context, id string, fn func(*core.Job)) error {
	return r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		job, err := r.readJob(tx, id)
		if err != nil {
			return err
		}

		fn(job)
		job.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeJobKey(id), storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func (r *JobRepository) readJob(tx *badger.Txn, id string) (*core.Job, error) {
	item, err := tx.Get(makeJobKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var job *core.Job
	err = item.Value(func(val []byte) error {
		var valErr error
		job, valErr = storage.UnmarshalJob(val)
		return valErr
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}
