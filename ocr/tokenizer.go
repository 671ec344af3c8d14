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
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Encoding used for token counting. Matches the tokenizer of the
// embedding models the pipeline targets.
const tiktokenEncoding = "cl100k_base"

// TokenCounter reports how many tokens a string costs under the
// embedding model's tokenizer.
type TokenCounter interface {
	Count(text string) int
}

// TokenCounterFunc adapts a plain function to the TokenCounter
// interface.
type TokenCounterFunc func(text string) int

// Count implements TokenCounter.
func (f TokenCounterFunc) Count(text string) int {
	return f(text)
}

// TiktokenCounter counts tokens with the cl100k_base byte-pair
// encoding. The underlying encoder is safe for concurrent use.
type TiktokenCounter struct {
	encoder *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a TiktokenCounter. The first call loads
// the encoding's vocabulary, which may fetch it over the network
// unless an offline loader is configured.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	encoder, err := tiktoken.GetEncoding(tiktokenEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", tiktokenEncoding, err)
	}
	return &TiktokenCounter{encoder: encoder}, nil
}

// Count implements TokenCounter.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.encoder.Encode(text, nil, nil))
}

// HeuristicCounter approximates token counts as one token per four
// characters, with a floor of one token for non-empty text. Useful in
// tests and air-gapped environments where the BPE vocabulary cannot
// be fetched.
func HeuristicCounter() TokenCounter {
	return TokenCounterFunc(func(text string) int {
		n := utf8.RuneCountInString(text)
		if n == 0 {
			return 0
		}
		return (n + 3) / 4
	})
}
