package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docdex/ai/mock"
	"github.com/poiesic/docdex/core"
	"github.com/poiesic/docdex/fetch"
	"github.com/poiesic/docdex/index"
	"github.com/poiesic/docdex/ocr"
	badgerstore "github.com/poiesic/docdex/storage/badger"
)

// testEnv wires a pipeline over in-memory storage, a static OCR
// lookup, the mock embedder, and a map-backed fetcher.
type testEnv struct {
	repos    *badgerstore.Repositories
	lookup   *ocr.StaticLookup
	embedder *mock.MockEmbedder
	sources  map[string][]byte
	pipeline *Pipeline
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	env := &testEnv{
		repos:    repos,
		lookup:   ocr.NewStaticLookup(),
		embedder: mock.NewMockEmbedder(),
		sources:  make(map[string][]byte),
	}

	fetcher := fetch.FetcherFunc(func(_ context.Context, location string) ([]byte, error) {
		data, ok := env.sources[location]
		if !ok {
			return nil, fmt.Errorf("%w: %s", fetch.ErrUnreachable, location)
		}
		return data, nil
	})

	pipeline, err := NewPipeline(
		fetcher,
		repos.Documents,
		env.lookup,
		env.embedder,
		index.NewLocal(repos.Vectors),
		opts...,
	)
	require.NoError(t, err)
	env.pipeline = pipeline

	return env
}

// upload registers source bytes at a URL, inserts the upload record,
// and registers a recognition result with the given paragraph texts.
func (env *testEnv) upload(t *testing.T, url, owner string, paragraphs ...string) core.ContentHash {
	t.Helper()

	data := []byte(url)
	env.sources[url] = data
	hash := core.HashBytes(data)

	err := env.repos.Documents.Insert(context.Background(), &core.Document{
		Hash:     hash,
		Owner:    owner,
		Ext:      "pdf",
		FileName: "doc.pdf",
		URL:      url,
		Status:   core.StatusNotStarted,
	})
	require.NoError(t, err)

	units := make([]ocr.Paragraph, len(paragraphs))
	for i, content := range paragraphs {
		units[i] = ocr.Paragraph{
			Content: content,
			Spans:   []ocr.Span{{Offset: 0, Length: len(content)}},
		}
	}
	env.lookup.Register(hash, &ocr.Result{
		Status:        "succeeded",
		AnalyzeResult: ocr.AnalyzeResult{Paragraphs: units},
	})

	return hash
}

func (env *testEnv) status(t *testing.T, hash core.ContentHash, owner string) core.ProcessingStatus {
	t.Helper()
	doc, err := env.repos.Documents.Find(context.Background(), hash, owner)
	require.NoError(t, err)
	return doc.Status
}

func TestPipeline_Process_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash := env.upload(t, "http://files/report", "alice",
		"First paragraph of the report.",
		"Second paragraph of the report.",
		"Third paragraph of the report.",
	)

	result, err := env.pipeline.Process(ctx, "http://files/report", "alice")
	require.NoError(t, err)
	require.NoError(t, result.Validate())
	require.True(t, result.Succeeded(), "unexpected error: %+v", result.Error)

	assert.Equal(t, 3, result.Data.UpsertedCount)
	assert.Equal(t, 1, result.Data.Batches)
	assert.Equal(t, 3, result.Data.Units)
	assert.Equal(t, string(hash), result.Data.Hash)

	assert.Equal(t, core.StatusSuccess, env.status(t, hash, "alice"))
}

func TestPipeline_Process_VectorMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash := env.upload(t, "http://files/one", "alice", "The only paragraph.")

	result, err := env.pipeline.Process(ctx, "http://files/one", "alice")
	require.NoError(t, err)
	require.True(t, result.Succeeded())

	query, err := env.embedder.EmbedText(ctx, "The only paragraph.")
	require.NoError(t, err)

	matches, err := env.repos.Vectors.Query(ctx, DefaultNamespace, query, 1, false, true)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	meta := matches[0].Metadata
	assert.Equal(t, "alice", meta[MetaOwner])
	assert.Equal(t, string(hash), meta[MetaContentHash])
	assert.Equal(t, DefaultModel, meta[MetaModel])
	assert.Contains(t, meta[MetaUnit], "The only paragraph.")
}

func TestPipeline_Process_UnreachableSource(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.pipeline.Process(context.Background(), "http://files/nowhere", "alice")
	require.NoError(t, err)
	require.NoError(t, result.Validate())
	assert.Equal(t, CodeInvalidSource, result.Error.Code)
	assert.Equal(t, 0, env.embedder.CallCount())
}

func TestPipeline_Process_NoUploadRecord(t *testing.T) {
	env := newTestEnv(t)

	// Source is fetchable but was never uploaded.
	env.sources["http://files/stray"] = []byte("stray bytes")

	result, err := env.pipeline.Process(context.Background(), "http://files/stray", "alice")
	require.NoError(t, err)
	assert.Equal(t, CodeNotFound, result.Error.Code)
}

func TestPipeline_Process_WrongOwner(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "http://files/private", "alice", "Contents.")

	result, err := env.pipeline.Process(context.Background(), "http://files/private", "mallory")
	require.NoError(t, err)
	assert.Equal(t, CodeNotFound, result.Error.Code)
}

func TestPipeline_Process_AlreadyProcessed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.upload(t, "http://files/twice", "alice", "Some paragraph.")

	first, err := env.pipeline.Process(ctx, "http://files/twice", "alice")
	require.NoError(t, err)
	require.True(t, first.Succeeded())

	callsAfterFirst := env.embedder.CallCount()

	second, err := env.pipeline.Process(ctx, "http://files/twice", "alice")
	require.NoError(t, err)
	require.NotNil(t, second.Error)
	assert.Equal(t, CodeAlreadyProcessed, second.Error.Code)
	assert.Equal(t, callsAfterFirst, env.embedder.CallCount(), "reprocessing must not call the provider")
}

func TestPipeline_Process_ClaimedElsewhere(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash := env.upload(t, "http://files/inflight", "alice", "Some paragraph.")
	require.NoError(t, env.repos.Documents.UpdateStatus(ctx, hash, "alice", core.StatusPending))

	result, err := env.pipeline.Process(ctx, "http://files/inflight", "alice")
	require.NoError(t, err)
	assert.Equal(t, CodeAlreadyProcessed, result.Error.Code)
	assert.Equal(t, 0, env.embedder.CallCount())
}

func TestPipeline_Process_MissingRecognitionResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	data := []byte("unrecognized")
	env.sources["http://files/noocr"] = data
	hash := core.HashBytes(data)

	require.NoError(t, env.repos.Documents.Insert(ctx, &core.Document{
		Hash:   hash,
		Owner:  "alice",
		URL:    "http://files/noocr",
		Status: core.StatusNotStarted,
	}))

	result, err := env.pipeline.Process(ctx, "http://files/noocr", "alice")
	require.NoError(t, err)
	assert.Equal(t, CodeNotFound, result.Error.Code)

	// The claim sticks; recovery is an operator reset.
	assert.Equal(t, core.StatusPending, env.status(t, hash, "alice"))
}

func TestPipeline_Process_ProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash := env.upload(t, "http://files/flaky", "alice", "Some paragraph.")

	env.embedder.EmbedTextsFunc = func(_ context.Context, _ []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}

	result, err := env.pipeline.Process(ctx, "http://files/flaky", "alice")
	require.NoError(t, err)
	assert.Equal(t, CodeProviderFailure, result.Error.Code)
	assert.Equal(t, core.StatusPending, env.status(t, hash, "alice"))

	// Resubmission hits the at-most-once guard while PENDING.
	guarded, err := env.pipeline.Process(ctx, "http://files/flaky", "alice")
	require.NoError(t, err)
	assert.Equal(t, CodeAlreadyProcessed, guarded.Error.Code)

	// After an operator reset the document processes cleanly.
	env.embedder.EmbedTextsFunc = nil
	require.NoError(t, env.repos.Documents.ResetStatus(ctx, hash, "alice"))

	retried, err := env.pipeline.Process(ctx, "http://files/flaky", "alice")
	require.NoError(t, err)
	require.True(t, retried.Succeeded(), "unexpected error: %+v", retried.Error)
	assert.Equal(t, core.StatusSuccess, env.status(t, hash, "alice"))
}

func TestPipeline_Process_MultipleBatches(t *testing.T) {
	wordCounter := ocr.TokenCounterFunc(func(text string) int {
		return len(strings.Fields(text))
	})

	env := newTestEnv(t,
		WithTokenBudget(4),
		WithTokenCounter(wordCounter),
	)
	ctx := context.Background()

	env.upload(t, "http://files/long", "alice",
		"one two three",
		"four five six",
		"seven eight",
		"nine",
	)

	result, err := env.pipeline.Process(ctx, "http://files/long", "alice")
	require.NoError(t, err)
	require.True(t, result.Succeeded(), "unexpected error: %+v", result.Error)

	assert.Equal(t, 4, result.Data.Units)
	assert.Equal(t, 4, result.Data.UpsertedCount)
	assert.Greater(t, result.Data.Batches, 1)
}

func TestPipeline_Process_EmptyDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash := env.upload(t, "http://files/empty", "alice")

	result, err := env.pipeline.Process(ctx, "http://files/empty", "alice")
	require.NoError(t, err)
	require.True(t, result.Succeeded())

	assert.Equal(t, 0, result.Data.UpsertedCount)
	assert.Equal(t, 0, result.Data.Batches)
	assert.Equal(t, core.StatusSuccess, env.status(t, hash, "alice"))
}

func TestPipeline_Process_Namespace(t *testing.T) {
	env := newTestEnv(t, WithNamespace("tenant-a"))
	ctx := context.Background()

	env.upload(t, "http://files/ns", "alice", "Namespaced paragraph.")

	result, err := env.pipeline.Process(ctx, "http://files/ns", "alice")
	require.NoError(t, err)
	require.True(t, result.Succeeded())

	query, err := env.embedder.EmbedText(ctx, "Namespaced paragraph.")
	require.NoError(t, err)

	matches, err := env.repos.Vectors.Query(ctx, "tenant-a", query, 1, false, false)
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	none, err := env.repos.Vectors.Query(ctx, DefaultNamespace, query, 1, false, false)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNewPipeline_RequiredDependencies(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	fetcher := fetch.FetcherFunc(func(context.Context, string) ([]byte, error) { return nil, nil })
	lookup := ocr.NewStaticLookup()
	embedder := mock.NewMockEmbedder()
	idx := index.NewLocal(repos.Vectors)

	_, err = NewPipeline(nil, repos.Documents, lookup, embedder, idx)
	assert.ErrorIs(t, err, ErrFetcherRequired)

	_, err = NewPipeline(fetcher, nil, lookup, embedder, idx)
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewPipeline(fetcher, repos.Documents, nil, embedder, idx)
	assert.ErrorIs(t, err, ErrLookupRequired)

	_, err = NewPipeline(fetcher, repos.Documents, lookup, nil, idx)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(fetcher, repos.Documents, lookup, embedder, nil)
	assert.ErrorIs(t, err, ErrIndexRequired)
}
