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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidJob indicates a Job failed validation.
	ErrInvalidJob = errors.New("invalid job")

	// ErrEmptyHash indicates the content hash field is empty.
	ErrEmptyHash = errors.New("content hash cannot be empty")

	// ErrEmptyOwner indicates the owner field is empty.
	ErrEmptyOwner = errors.New("owner cannot be empty")

	// ErrEmptyURL indicates the storage location field is empty.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrInvalidStatus indicates an invalid ProcessingStatus value.
	ErrInvalidStatus = errors.New("invalid processing status")

	// ErrInvalidStatusTransition indicates a status change that would move
	// a document backwards in its lifecycle.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrEmptyJobID indicates the job ID field is empty.
	ErrEmptyJobID = errors.New("job id cannot be empty")

	// ErrInvalidJobState indicates an invalid JobState value.
	ErrInvalidJobState = errors.New("invalid job state")
)
