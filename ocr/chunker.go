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

import "fmt"

// PackParagraphs groups paragraphs into batches whose combined token
// count stays within budget, preserving document order. The packing is
// greedy: each paragraph joins the current batch if it fits, otherwise
// it starts a new one. Paragraphs are never split, so a single
// paragraph that exceeds the budget on its own becomes a singleton
// batch rather than failing the whole document.
//
// An empty input yields a nil slice. A non-positive budget is an
// error.
func PackParagraphs(units []Paragraph, budget int, counter TokenCounter) ([][]Paragraph, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBudget, budget)
	}
	if len(units) == 0 {
		return nil, nil
	}

	var batches [][]Paragraph
	var current []Paragraph
	currentTokens := 0

	for _, unit := range units {
		cost := counter.Count(unit.Content)

		if len(current) > 0 && currentTokens+cost > budget {
			batches = append(batches, current)
			current = nil
			currentTokens = 0
		}

		current = append(current, unit)
		currentTokens += cost
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches, nil
}
