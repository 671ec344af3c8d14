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


// Package ratelimit enforces per-user fixed-window quotas over the
// shared counter store. Counters live in storage rather than in process
// memory so every instance of the service observes the same windows.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/docdex/storage"
)

// ErrRateLimited indicates a call was rejected because the subject
// exhausted its quota for the action's current window.
var ErrRateLimited = errors.New("rate limited")

// ErrUnknownAction indicates no quota is defined for the action.
var ErrUnknownAction = errors.New("unknown rate limit action")

// Limiter answers whether a (subject, action) call may proceed.
type Limiter struct {
	counters storage.CounterRepository
	limits   map[string]Limit
	logger   *slog.Logger
}

// New creates a Limiter over the given counter repository using the
// default UserLimits table.
func New(counters storage.CounterRepository) *Limiter {
	return NewWithLimits(counters, UserLimits)
}

// NewWithLimits creates a Limiter with a custom quota table.
func NewWithLimits(counters storage.CounterRepository, limits map[string]Limit) *Limiter {
	return &Limiter{
		counters: counters,
		limits:   limits,
		logger:   slog.Default().With("component", "ratelimit"),
	}
}

// IsLimited records one call of action by subject and reports whether
// the call exceeded the quota. A limited call does not consume quota.
// Counter store failures surface as errors, never as limit decisions.
func (l *Limiter) IsLimited(ctx context.Context, subject, action string) (bool, error) {
	limit, ok := l.limits[action]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	limited, err := l.counters.Increment(ctx, subject, action, limit.Calls, limit.Window)
	if err != nil {
		return false, fmt.Errorf("rate limit check failed for %s/%s: %w", subject, action, err)
	}

	if limited {
		l.logger.Debug("rate limited", "subject", subject, "action", action, "limit", limit.Calls, "window", limit.Window)
	}
	return limited, nil
}

// Check is like IsLimited but folds the limited outcome into the error:
// it returns ErrRateLimited when the quota is exhausted.
func (l *Limiter) Check(ctx context.Context, subject, action string) error {
	limited, err := l.IsLimited(ctx, subject, action)
	if err != nil {
		return err
	}
	if limited {
		return fmt.Errorf("%w: %s/%s", ErrRateLimited, subject, action)
	}
	return nil
}
