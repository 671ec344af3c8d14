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


package docdex

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/docdex/ai"
	"github.com/poiesic/docdex/ai/openai"
	"github.com/poiesic/docdex/core"
	"github.com/poiesic/docdex/fetch"
	"github.com/poiesic/docdex/index"
	"github.com/poiesic/docdex/ingestion"
	"github.com/poiesic/docdex/jobs"
	"github.com/poiesic/docdex/ocr"
	"github.com/poiesic/docdex/ratelimit"
	"github.com/poiesic/docdex/storage"
	"github.com/poiesic/docdex/storage/badger"
)

// Service is the top-level entry point: it owns the storage backend,
// the embedding provider, and the ingestion machinery, and exposes the
// upload / process / poll / search operations.
type Service struct {
	repos      *badger.Repositories
	provider   ai.AIProvider
	lookup     *ocr.StaticLookup
	limiter    *ratelimit.Limiter
	vectors    *index.Local
	pipeline   *ingestion.Pipeline
	dispatcher *jobs.Dispatcher
	logger     *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig       *ai.Config
	provider       ai.AIProvider
	fetcher        fetch.Fetcher
	inMemory       bool
	pipelineOpts   []ingestion.Option
	dispatcherOpts []jobs.Option
	limits         map[string]ratelimit.Limit
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(cfg *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider injects a pre-built embedding provider, bypassing the
// OpenAI-compatible default. Primarily for tests.
func WithProvider(provider ai.AIProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithFetcher replaces the HTTP fetcher used to retrieve document bytes.
func WithFetcher(fetcher fetch.Fetcher) ServiceOption {
	return func(o *serviceOptions) {
		o.fetcher = fetcher
	}
}

// WithInMemory opens the storage backend in memory. State is lost on
// Close.
func WithInMemory() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// WithPipelineOptions forwards options to the ingestion pipeline.
func WithPipelineOptions(opts ...ingestion.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithDispatcherOptions forwards options to the job dispatcher.
func WithDispatcherOptions(opts ...jobs.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.dispatcherOpts = append(o.dispatcherOpts, opts...)
	}
}

// WithUserLimits replaces the per-user rate limit table.
func WithUserLimits(limits map[string]ratelimit.Limit) ServiceOption {
	return func(o *serviceOptions) {
		o.limits = limits
	}
}

// NewService opens the storage backend at filePath and wires the full
// ingestion stack over it.
func NewService(filePath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
		limits:   ratelimit.UserLimits,
	}
	for _, opt := range opts {
		opt(options)
	}

	repos, err := badger.NewRepositories(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	fetcher := options.fetcher
	if fetcher == nil {
		fetcher = fetch.NewHTTPFetcher()
	}

	lookup := ocr.NewStaticLookup()
	vectors := index.NewLocal(repos.Vectors)

	pipeline, err := ingestion.NewPipeline(
		fetcher,
		repos.Documents,
		lookup,
		provider.Embedder(),
		vectors,
		options.pipelineOpts...,
	)
	if err != nil {
		provider.Close()
		repos.Close()
		return nil, err
	}

	dispatcher, err := jobs.NewDispatcher(pipeline, repos.Jobs, options.dispatcherOpts...)
	if err != nil {
		provider.Close()
		repos.Close()
		return nil, err
	}

	return &Service{
		repos:      repos,
		provider:   provider,
		lookup:     lookup,
		limiter:    ratelimit.NewWithLimits(repos.Counters, options.limits),
		vectors:    vectors,
		pipeline:   pipeline,
		dispatcher: dispatcher,
		logger:     slog.Default().With("component", "docdex"),
	}, nil
}

// Upload records a document owned by owner, stored at url, with the
// given bytes. The content hash of data keys all later processing.
// Re-uploading the same bytes returns storage.ErrDuplicateKey.
func (s *Service) Upload(ctx context.Context, owner, fileName, url string, data []byte) (*core.Document, error) {
	if err := s.limiter.Check(ctx, owner, ratelimit.ActionUpload); err != nil {
		return nil, err
	}

	doc := &core.Document{
		Hash:     core.HashBytes(data),
		Owner:    owner,
		Ext:      strings.TrimPrefix(filepath.Ext(fileName), "."),
		FileName: fileName,
		URL:      url,
		Status:   core.StatusNotStarted,
	}

	if err := s.repos.Documents.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("upload failed for %s: %w", fileName, err)
	}

	s.logger.Info("document uploaded", "owner", owner, "hash", doc.Hash, "file", fileName)
	return doc, nil
}

// RegisterOCRResult attaches a recognition result to a content hash.
// Recognition runs out of process; results arrive through this call or
// through fixture files loaded at startup.
func (s *Service) RegisterOCRResult(hash core.ContentHash, result *ocr.Result) {
	s.lookup.Register(hash, result)
}

// LoadOCRFixture reads a JSON recognition result from path and
// registers it under hash.
func (s *Service) LoadOCRFixture(hash core.ContentHash, path string) error {
	return s.lookup.LoadFile(hash, path)
}

// Submit queues asynchronous processing of the document at url owned
// by owner and returns a job ID for polling.
func (s *Service) Submit(ctx context.Context, owner, url string) (string, error) {
	if err := s.limiter.Check(ctx, owner, ratelimit.ActionOCR); err != nil {
		return "", err
	}
	return s.dispatcher.Submit(ctx, url, owner)
}

// Process runs the pipeline synchronously for the document at url
// owned by owner.
func (s *Service) Process(ctx context.Context, owner, url string) (*ingestion.TaskResult, error) {
	if err := s.limiter.Check(ctx, owner, ratelimit.ActionCore); err != nil {
		return nil, err
	}
	return s.pipeline.Process(ctx, url, owner)
}

// JobStatus retrieves a submitted job for polling.
func (s *Service) JobStatus(ctx context.Context, jobID string) (*core.Job, error) {
	return s.dispatcher.Status(ctx, jobID)
}

// Search embeds the query text and returns the topK nearest indexed
// units with their metadata.
func (s *Service) Search(ctx context.Context, owner, query string, topK int) ([]*core.VectorMatch, error) {
	if err := s.limiter.Check(ctx, owner, ratelimit.ActionExtract); err != nil {
		return nil, err
	}

	started := time.Now()
	vector, err := s.provider.Embedder().EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	matches, err := s.vectors.Query(ctx, index.DefaultNamespace, vector, topK, false, true)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search complete", "owner", owner, "matches", len(matches), "took", time.Since(started))
	return matches, nil
}

// ResetDocument administratively resets a document stuck in PENDING so
// it can be resubmitted.
func (s *Service) ResetDocument(ctx context.Context, hash core.ContentHash, owner string) error {
	return s.repos.Documents.ResetStatus(ctx, hash, owner)
}

// Documents exposes the document repository.
func (s *Service) Documents() storage.DocumentRepository {
	return s.repos.Documents
}

// Close releases the dispatcher, the provider, and the storage backend.
func (s *Service) Close() error {
	s.dispatcher.Release()

	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	if err := s.repos.Close(); err != nil {
		s.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}
