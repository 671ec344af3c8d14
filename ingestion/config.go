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

import (
	"log/slog"

	"github.com/poiesic/docdex/ocr"
)

const (
	// DefaultTokenBudget caps the combined token count of one embedding
	// batch.
	DefaultTokenBudget = 8000

	// DefaultModel is the embedding model id recorded in vector
	// metadata.
	DefaultModel = "text-embedding-3-small"

	// DefaultNamespace is the index namespace documents are upserted
	// into.
	DefaultNamespace = "default"
)

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithTokenBudget sets the per-batch token budget.
// Default is DefaultTokenBudget.
func WithTokenBudget(budget int) Option {
	return func(p *Pipeline) error {
		if budget < 1 {
			budget = DefaultTokenBudget
		}
		p.tokenBudget = budget
		return nil
	}
}

// WithModel sets the embedding model id recorded in vector metadata.
// Default is DefaultModel.
func WithModel(model string) Option {
	return func(p *Pipeline) error {
		if model != "" {
			p.model = model
		}
		return nil
	}
}

// WithNamespace sets the index namespace.
// Default is DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(p *Pipeline) error {
		if namespace != "" {
			p.namespace = namespace
		}
		return nil
	}
}

// WithTokenCounter sets the token counter used by the chunker.
// Default is the cl100k_base heuristic approximation.
func WithTokenCounter(counter ocr.TokenCounter) Option {
	return func(p *Pipeline) error {
		if counter != nil {
			p.tokenCounter = counter
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}
