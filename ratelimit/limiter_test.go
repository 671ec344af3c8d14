package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCounters records Increment calls and returns scripted outcomes.
type fakeCounters struct {
	limited bool
	err     error

	subject string
	action  string
	limit   uint64
	window  time.Duration
	calls   int
}

func (f *fakeCounters) Increment(_ context.Context, subject, action string, limit uint64, window time.Duration) (bool, error) {
	f.calls++
	f.subject = subject
	f.action = action
	f.limit = limit
	f.window = window
	return f.limited, f.err
}

func (f *fakeCounters) Close() error { return nil }

func TestLimiter_PassesQuotaToCounters(t *testing.T) {
	counters := &fakeCounters{}
	limiter := New(counters)

	limited, err := limiter.IsLimited(context.Background(), "alice", ActionUpload)
	require.NoError(t, err)
	assert.False(t, limited)

	assert.Equal(t, "alice", counters.subject)
	assert.Equal(t, ActionUpload, counters.action)
	assert.Equal(t, uint64(5), counters.limit)
	assert.Equal(t, 30*time.Second, counters.window)
}

func TestLimiter_Limited(t *testing.T) {
	counters := &fakeCounters{limited: true}
	limiter := New(counters)

	limited, err := limiter.IsLimited(context.Background(), "alice", ActionCore)
	require.NoError(t, err)
	assert.True(t, limited)
}

func TestLimiter_UnknownAction(t *testing.T) {
	counters := &fakeCounters{}
	limiter := New(counters)

	_, err := limiter.IsLimited(context.Background(), "alice", "no-such-action")
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, 0, counters.calls, "unknown actions must not touch the store")
}

func TestLimiter_StoreFailureIsError(t *testing.T) {
	storeErr := errors.New("disk on fire")
	counters := &fakeCounters{err: storeErr}
	limiter := New(counters)

	limited, err := limiter.IsLimited(context.Background(), "alice", ActionOCR)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, limited, "a store failure must not read as a limit decision")
}

func TestLimiter_Check(t *testing.T) {
	limiter := New(&fakeCounters{})
	assert.NoError(t, limiter.Check(context.Background(), "alice", ActionExtract))

	limiter = New(&fakeCounters{limited: true})
	err := limiter.Check(context.Background(), "alice", ActionExtract)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestLimiter_CustomLimits(t *testing.T) {
	counters := &fakeCounters{}
	limiter := NewWithLimits(counters, map[string]Limit{
		"sync": {Calls: 2, Window: time.Minute},
	})

	_, err := limiter.IsLimited(context.Background(), "bob", "sync")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), counters.limit)
	assert.Equal(t, time.Minute, counters.window)
}

func TestUserLimits_Table(t *testing.T) {
	tests := []struct {
		action string
		calls  uint64
		window time.Duration
	}{
		{ActionUpload, 5, 30 * time.Second},
		{ActionOCR, 5, 30 * time.Second},
		{ActionExtract, 10, 30 * time.Second},
		{ActionCore, 300, 10 * time.Second},
	}

	for _, tt := range tests {
		limit, ok := LimitFor(tt.action)
		require.True(t, ok, tt.action)
		assert.Equal(t, tt.calls, limit.Calls, tt.action)
		assert.Equal(t, tt.window, limit.Window, tt.action)
	}

	_, ok := LimitFor("nope")
	assert.False(t, ok)
}
