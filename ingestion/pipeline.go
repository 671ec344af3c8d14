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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/docdex/ai"
	"github.com/poiesic/docdex/core"
	"github.com/poiesic/docdex/fetch"
	"github.com/poiesic/docdex/index"
	"github.com/poiesic/docdex/ocr"
	"github.com/poiesic/docdex/storage"
)

// Metadata keys attached to every upserted vector.
const (
	MetaOwner       = "owner"
	MetaContentHash = "content_hash"
	MetaUnit        = "unit"
	MetaModel       = "model"
)

// Pipeline orchestrates the processing of one uploaded document: fetch,
// claim, chunk, embed, upsert. Safe for concurrent use.
type Pipeline struct {
	fetcher      fetch.Fetcher
	documents    storage.DocumentRepository
	lookup       ocr.Lookup
	embedder     ai.Embedder
	index        index.VectorIndex
	tokenCounter ocr.TokenCounter
	tokenBudget  int
	model        string
	namespace    string
	logger       *slog.Logger
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	fetcher fetch.Fetcher,
	documents storage.DocumentRepository,
	lookup ocr.Lookup,
	embedder ai.Embedder,
	idx index.VectorIndex,
	opts ...Option,
) (*Pipeline, error) {
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if lookup == nil {
		return nil, ErrLookupRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}

	p := &Pipeline{
		fetcher:      fetcher,
		documents:    documents,
		lookup:       lookup,
		embedder:     embedder,
		index:        idx,
		tokenCounter: ocr.HeuristicCounter(),
		tokenBudget:  DefaultTokenBudget,
		model:        DefaultModel,
		namespace:    DefaultNamespace,
		logger:       slog.Default().With("component", "pipeline"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Process runs the pipeline for the document at url owned by owner. It
// always returns a TaskResult with exactly one of Data and Error set;
// the error return is reserved for context cancellation.
//
// The document must have been uploaded first: processing is keyed by
// the (content hash, owner) upload record, and the NOT_STARTED→PENDING
// swap on that record guarantees at most one run does the work. After a
// successful claim, any failure leaves the document PENDING; operators
// recover with ResetStatus.
func (p *Pipeline) Process(ctx context.Context, url, owner string) (*TaskResult, error) {
	logger := p.logger.With("owner", owner, "url", url)
	logger.Info("processing document")

	// Stage 1: fetch source bytes.
	data, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("source fetch failed", "err", err)
		return errorResult(CodeInvalidSource, err.Error()), nil
	}

	hash := core.HashBytes(data)
	logger = logger.With("hash", hash)

	// Stage 2: verify the upload record and claim the document.
	doc, err := p.documents.Find(ctx, hash, owner)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Warn("no upload record for document")
			return errorResult(CodeNotFound, fmt.Sprintf("document %s not uploaded by %s", hash, owner)), nil
		}
		return p.internalError(logger, "document lookup failed", err), nil
	}

	if doc.Status == core.StatusSuccess {
		logger.Info("document already processed")
		return errorResult(CodeAlreadyProcessed, fmt.Sprintf("document %s already processed", hash)), nil
	}

	claimed, err := p.documents.SetStatusIf(ctx, hash, owner, core.StatusNotStarted, core.StatusPending)
	if err != nil {
		return p.internalError(logger, "document claim failed", err), nil
	}
	if !claimed {
		logger.Info("document claimed elsewhere", "status", doc.Status)
		return errorResult(CodeAlreadyProcessed, fmt.Sprintf("document %s is already being processed", hash)), nil
	}

	// Stage 3: recognition result.
	result, err := p.lookup.Result(ctx, hash)
	if err != nil {
		if errors.Is(err, ocr.ErrResultNotFound) {
			logger.Warn("no recognition result for document")
			return errorResult(CodeNotFound, fmt.Sprintf("no ocr result for document %s", hash)), nil
		}
		return p.internalError(logger, "ocr lookup failed", err), nil
	}

	units := result.AnalyzeResult.Paragraphs

	// Stage 4: chunk paragraphs within the token budget.
	batches, err := ocr.PackParagraphs(units, p.tokenBudget, p.tokenCounter)
	if err != nil {
		return p.internalError(logger, "chunking failed", err), nil
	}
	logger.Info("document chunked", "units", len(units), "batches", len(batches))

	// Stage 5: embed and upsert each batch in order.
	upserted := 0
	for i, batch := range batches {
		count, err := p.processBatch(ctx, batch, hash, owner)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Error("batch failed", "batch", i, "err", err)
			return errorResult(CodeProviderFailure, err.Error()), nil
		}
		upserted += count
		logger.Debug("batch upserted", "batch", i, "count", count)
	}

	// Stage 6: mark the document done.
	if err := p.documents.UpdateStatus(ctx, hash, owner, core.StatusSuccess); err != nil {
		return p.internalError(logger, "status update failed", err), nil
	}

	logger.Info("document processed", "upserted_count", upserted)
	return successResult(&TaskData{
		UpsertedCount: upserted,
		Batches:       len(batches),
		Units:         len(units),
		Hash:          string(hash),
	}), nil
}

// processBatch embeds one batch of paragraphs and upserts the vectors
// with per-unit metadata.
func (p *Pipeline) processBatch(ctx context.Context, batch []ocr.Paragraph, hash core.ContentHash, owner string) (int, error) {
	texts := make([]string, len(batch))
	metadata := make([]map[string]string, len(batch))
	for i, unit := range batch {
		texts[i] = unit.Content

		serialized, err := json.Marshal(unit)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize unit: %w", err)
		}
		metadata[i] = map[string]string{
			MetaOwner:       owner,
			MetaContentHash: string(hash),
			MetaUnit:        string(serialized),
			MetaModel:       p.model,
		}
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	count, err := p.index.Upsert(ctx, p.namespace, vectors, metadata)
	if err != nil {
		return 0, fmt.Errorf("index upsert failed: %w", err)
	}

	return count, nil
}

func (p *Pipeline) internalError(logger *slog.Logger, msg string, err error) *TaskResult {
	logger.Error(msg, "err", err)
	return errorResult(CodeInternal, fmt.Sprintf("%s: %v", msg, err))
}
