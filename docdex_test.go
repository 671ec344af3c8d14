package docdex

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docdex/ai/mock"
	"github.com/poiesic/docdex/core"
	"github.com/poiesic/docdex/fetch"
	"github.com/poiesic/docdex/ingestion"
	"github.com/poiesic/docdex/ocr"
	"github.com/poiesic/docdex/ratelimit"
	"github.com/poiesic/docdex/storage"
)

// looseLimits keeps rate limiting out of the way for tests that are
// not about it.
var looseLimits = map[string]ratelimit.Limit{
	ratelimit.ActionUpload:  {Calls: 1000, Window: time.Minute},
	ratelimit.ActionOCR:     {Calls: 1000, Window: time.Minute},
	ratelimit.ActionExtract: {Calls: 1000, Window: time.Minute},
	ratelimit.ActionCore:    {Calls: 1000, Window: time.Minute},
}

func newTestService(t *testing.T, sources map[string][]byte, opts ...ServiceOption) *Service {
	t.Helper()

	fetcher := fetch.FetcherFunc(func(_ context.Context, location string) ([]byte, error) {
		data, ok := sources[location]
		if !ok {
			return nil, fmt.Errorf("%w: %s", fetch.ErrUnreachable, location)
		}
		return data, nil
	})

	base := []ServiceOption{
		WithInMemory(),
		WithProvider(mock.NewMockProvider()),
		WithFetcher(fetcher),
		WithUserLimits(looseLimits),
	}
	service, err := NewService("", append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { service.Close() })

	return service
}

func registerParagraphs(service *Service, hash core.ContentHash, paragraphs ...string) {
	units := make([]ocr.Paragraph, len(paragraphs))
	for i, content := range paragraphs {
		units[i] = ocr.Paragraph{Content: content}
	}
	service.RegisterOCRResult(hash, &ocr.Result{
		Status:        "succeeded",
		AnalyzeResult: ocr.AnalyzeResult{Paragraphs: units},
	})
}

func TestService_UploadProcessSearch(t *testing.T) {
	sources := map[string][]byte{
		"http://files/report": []byte("report body"),
	}
	service := newTestService(t, sources)
	ctx := context.Background()

	doc, err := service.Upload(ctx, "alice", "report.pdf", "http://files/report", sources["http://files/report"])
	require.NoError(t, err)
	assert.Equal(t, "pdf", doc.Ext)
	assert.Equal(t, core.StatusNotStarted, doc.Status)

	registerParagraphs(service, doc.Hash,
		"Quarterly revenue grew by twelve percent.",
		"Headcount stayed flat across all offices.",
	)

	result, err := service.Process(ctx, "alice", "http://files/report")
	require.NoError(t, err)
	require.True(t, result.Succeeded(), "unexpected error: %+v", result.Error)
	assert.Equal(t, 2, result.Data.UpsertedCount)

	matches, err := service.Search(ctx, "alice", "Quarterly revenue grew by twelve percent.", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, string(doc.Hash), matches[0].Metadata[ingestion.MetaContentHash])
	assert.Contains(t, matches[0].Metadata[ingestion.MetaUnit], "Quarterly revenue")
}

func TestService_Upload_Duplicate(t *testing.T) {
	sources := map[string][]byte{"http://files/dup": []byte("same bytes")}
	service := newTestService(t, sources)
	ctx := context.Background()

	_, err := service.Upload(ctx, "alice", "a.pdf", "http://files/dup", sources["http://files/dup"])
	require.NoError(t, err)

	_, err = service.Upload(ctx, "alice", "b.pdf", "http://files/dup", sources["http://files/dup"])
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestService_SubmitAndPoll(t *testing.T) {
	sources := map[string][]byte{"http://files/job": []byte("job body")}
	service := newTestService(t, sources)
	ctx := context.Background()

	doc, err := service.Upload(ctx, "alice", "job.pdf", "http://files/job", sources["http://files/job"])
	require.NoError(t, err)
	registerParagraphs(service, doc.Hash, "One paragraph.")

	jobID, err := service.Submit(ctx, "alice", "http://files/job")
	require.NoError(t, err)

	var job *core.Job
	require.Eventually(t, func() bool {
		job, err = service.JobStatus(ctx, jobID)
		require.NoError(t, err)
		return job.State.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, core.JobStateSucceeded, job.State)
	assert.Contains(t, job.Result, `"upserted_count":1`)
}

func TestService_RateLimits(t *testing.T) {
	sources := map[string][]byte{}
	limits := map[string]ratelimit.Limit{
		ratelimit.ActionUpload:  {Calls: 2, Window: time.Minute},
		ratelimit.ActionOCR:     {Calls: 1000, Window: time.Minute},
		ratelimit.ActionExtract: {Calls: 1000, Window: time.Minute},
		ratelimit.ActionCore:    {Calls: 1000, Window: time.Minute},
	}
	service := newTestService(t, sources, WithUserLimits(limits))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := service.Upload(ctx, "alice", fmt.Sprintf("f%d.pdf", i), "u", []byte{byte(i)})
		require.NoError(t, err)
	}

	_, err := service.Upload(ctx, "alice", "f2.pdf", "u", []byte{9})
	assert.ErrorIs(t, err, ratelimit.ErrRateLimited)

	// Quotas are per user.
	_, err = service.Upload(ctx, "bob", "f0.pdf", "u", []byte{42})
	assert.NoError(t, err)
}

func TestService_ResetDocument(t *testing.T) {
	sources := map[string][]byte{"http://files/stuck": []byte("stuck body")}
	service := newTestService(t, sources)
	ctx := context.Background()

	doc, err := service.Upload(ctx, "alice", "stuck.pdf", "http://files/stuck", sources["http://files/stuck"])
	require.NoError(t, err)

	// No OCR result registered: processing claims the document and
	// fails, leaving it PENDING.
	result, err := service.Process(ctx, "alice", "http://files/stuck")
	require.NoError(t, err)
	assert.Equal(t, ingestion.CodeNotFound, result.Error.Code)

	stored, err := service.Documents().Find(ctx, doc.Hash, "alice")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, stored.Status)

	require.NoError(t, service.ResetDocument(ctx, doc.Hash, "alice"))

	registerParagraphs(service, doc.Hash, "Recovered paragraph.")
	result, err = service.Process(ctx, "alice", "http://files/stuck")
	require.NoError(t, err)
	assert.True(t, result.Succeeded(), "unexpected error: %+v", result.Error)
}

func TestService_Search_Empty(t *testing.T) {
	service := newTestService(t, map[string][]byte{})

	matches, err := service.Search(context.Background(), "alice", "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
