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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Hash, Owner and URL must not be empty
//   - Status must be a known ProcessingStatus
//
// NOT validated:
//   - Ext and FileName (informational, may be empty)
//   - Timestamps (populated by the repository)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Hash == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyHash)
	}

	if doc.Owner == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyOwner)
	}

	if doc.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyURL)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateStatus validates that a ProcessingStatus has a known value.
func ValidateStatus(status ProcessingStatus) error {
	switch status {
	case StatusNotStarted, StatusPending, StatusSuccess:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
}

// ValidateStatusTransition validates that a status change moves forward in
// the document lifecycle. Equal states are rejected; the only allowed moves
// are NOT_STARTED -> PENDING and PENDING -> SUCCESS.
func ValidateStatusTransition(from, to ProcessingStatus) error {
	if err := ValidateStatus(from); err != nil {
		return err
	}
	if err := ValidateStatus(to); err != nil {
		return err
	}
	if to != from+1 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
	}
	return nil
}

// ValidateJob validates a Job according to domain rules.
func ValidateJob(job *Job) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}

	if job.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptyJobID)
	}

	if job.Owner == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptyOwner)
	}

	if job.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptyURL)
	}

	if err := ValidateJobState(job.State); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	return nil
}

// ValidateJobState validates that a JobState has a known value.
func ValidateJobState(state JobState) error {
	switch state {
	case JobStateQueued, JobStateRunning, JobStateRetrying, JobStateFailed, JobStateSucceeded:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidJobState, state)
	}
}
