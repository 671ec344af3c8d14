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

import "github.com/poiesic/docdex/storage"

// Repositories bundles all repositories sharing one backend. Primarily
// a test convenience, but also used by the service facade to wire the
// storage layer in one step.
type Repositories struct {
	Documents storage.DocumentRepository
	Counters  storage.CounterRepository
	Jobs      storage.JobRepository
	Vectors   storage.VectorRepository
	Backend   *Backend
}

// Close closes every repository and the underlying backend.
func (r *Repositories) Close() error {
	r.Documents.Close()
	r.Counters.Close()
	r.Jobs.Close()
	r.Vectors.Close()
	return r.Backend.Close()
}

// NewRepositories opens a backend at path and creates all repositories
// over it. Caller must Close the result when done.
func NewRepositories(path string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	documents, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	counters, err := NewCounterRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	jobs, err := NewJobRepository(backend)
	if err != nil {
		counters.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	vectors, err := NewVectorRepository(backend)
	if err != nil {
		jobs.Close()
		counters.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Documents: documents,
		Counters:  counters,
		Jobs:      jobs,
		Vectors:   vectors,
		Backend:   backend,
	}, nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must Close the result when done.
func NewMemoryRepositories() (*Repositories, error) {
	return NewRepositories("", true)
}
