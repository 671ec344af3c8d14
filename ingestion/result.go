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


package ingestion

// Error codes a TaskError can carry.
const (
	// CodeInvalidSource: the document bytes could not be fetched from
	// their location.
	CodeInvalidSource = "invalid_source"

	// CodeNotFound: no upload record or no recognition result exists
	// for the document.
	CodeNotFound = "not_found"

	// CodeAlreadyProcessed: the document was already processed, or
	// another worker currently holds it. Callers should treat this as a
	// guard outcome rather than a failure.
	CodeAlreadyProcessed = "already_processed"

	// CodeProviderFailure: the embedding provider or index rejected a
	// batch mid-run. The document stays claimed; an operator reset is
	// required before resubmission.
	CodeProviderFailure = "provider_failure"

	// CodeInternal: a storage fault unrelated to the document itself.
	CodeInternal = "internal"
)

// TaskData is the success payload of a pipeline run.
type TaskData struct {
	// UpsertedCount is the total number of vectors written to the index.
	UpsertedCount int `json:"upserted_count"`

	// Batches is the number of embedding batches the document produced.
	Batches int `json:"batches"`

	// Units is the number of paragraphs embedded.
	Units int `json:"units"`

	// Hash is the content hash of the processed document.
	Hash string `json:"hash"`
}

// TaskError is the failure payload of a pipeline run.
type TaskError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TaskResult is the outcome of a pipeline run: a tagged union with
// exactly one of Data and Error set.
type TaskResult struct {
	Data  *TaskData  `json:"data,omitempty"`
	Error *TaskError `json:"error,omitempty"`
}

// Succeeded reports whether the run produced data.
func (r *TaskResult) Succeeded() bool {
	return r.Data != nil && r.Error == nil
}

// Validate checks the exactly-one-side invariant.
func (r *TaskResult) Validate() error {
	if (r.Data == nil) == (r.Error == nil) {
		return ErrResultSides
	}
	return nil
}

func successResult(data *TaskData) *TaskResult {
	return &TaskResult{Data: data}
}

func errorResult(code, message string) *TaskResult {
	return &TaskResult{Error: &TaskError{Code: code, Message: message}}
}
