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


// Package fetch retrieves source document bytes from their storage
// location. Every retrieval failure wraps ErrUnreachable so callers can
// classify it without inspecting transport details.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnreachable indicates the document bytes could not be retrieved
// from their location, for any reason.
var ErrUnreachable = errors.New("document source unreachable")

// Fetcher retrieves the raw bytes of a document from its location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, location string) ([]byte, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

const (
	defaultTimeout = 30 * time.Second

	// defaultMaxBytes caps downloads at 64 MiB. OCR sources are
	// documents, not archives.
	defaultMaxBytes = 64 << 20
)

// HTTPFetcher retrieves documents over HTTP(S).
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client.Timeout = timeout
	}
}

// WithMaxBytes caps the number of bytes read from a response body.
func WithMaxBytes(n int64) HTTPOption {
	return func(f *HTTPFetcher) {
		f.maxBytes = n
	}
}

// WithClient replaces the underlying HTTP client.
func WithClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// NewHTTPFetcher creates an HTTPFetcher with a 30 second timeout and a
// 64 MiB download cap.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	fetcher := &HTTPFetcher{
		client:   &http.Client{Timeout: defaultTimeout},
		maxBytes: defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch implements Fetcher. Non-2xx responses, transport failures, and
// oversized bodies all wrap ErrUnreachable.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreachable, location, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreachable, location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: status %d", ErrUnreachable, location, resp.StatusCode)
	}

	// Read one byte past the cap to detect oversized bodies.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreachable, location, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s: body exceeds %d bytes", ErrUnreachable, location, f.maxBytes)
	}

	return data, nil
}
