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


package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/poiesic/docdex/core"
)

// Lookup retrieves the recognition result for a content hash. It fails
// with ErrResultNotFound when no result exists for the hash.
type Lookup interface {
	Result(ctx context.Context, hash core.ContentHash) (*Result, error)
}

// StaticLookup serves recognition results from an in-memory table,
// optionally loaded from JSON fixture files. It stands in for a live
// analysis service, which always completes out of band.
type StaticLookup struct {
	mu      sync.RWMutex
	results map[core.ContentHash]*Result
}

// NewStaticLookup creates an empty StaticLookup.
func NewStaticLookup() *StaticLookup {
	return &StaticLookup{
		results: make(map[core.ContentHash]*Result),
	}
}

// Register associates a recognition result with a content hash,
// replacing any previous result for the same hash.
func (l *StaticLookup) Register(hash core.ContentHash, result *Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results[hash] = result
}

// LoadFile reads a JSON recognition result from path and registers it
// under the given content hash.
func (l *StaticLookup) LoadFile(hash core.ContentHash, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read ocr fixture %s: %w", path, err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("failed to parse ocr fixture %s: %w", path, err)
	}

	l.Register(hash, &result)
	return nil
}

// Result implements Lookup.
func (l *StaticLookup) Result(_ context.Context, hash core.ContentHash) (*Result, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result, ok := l.results[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, hash)
	}
	return result, nil
}
