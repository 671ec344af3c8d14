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

import "encoding/json"

// Span locates a paragraph's text within the full recognized content.
type Span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// BoundingRegion locates a paragraph on a page. The polygon is a flat
// list of x,y coordinate pairs in page units.
type BoundingRegion struct {
	PageNumber int       `json:"pageNumber"`
	Polygon    []float64 `json:"polygon"`
}

// Paragraph is a single unit of recognized text. Paragraphs are the
// atomic unit of chunking: they are never split across batches.
type Paragraph struct {
	Spans           []Span           `json:"spans"`
	BoundingRegions []BoundingRegion `json:"boundingRegions"`
	Content         string           `json:"content"`
}

// AnalyzeResult is the payload of a recognition run. Pages and Styles
// are carried opaquely; only Paragraphs participate in ingestion.
type AnalyzeResult struct {
	APIVersion string            `json:"apiVersion"`
	ModelID    string            `json:"modelId"`
	Content    string            `json:"content"`
	Pages      []json.RawMessage `json:"pages"`
	Paragraphs []Paragraph       `json:"paragraphs"`
	Styles     []json.RawMessage `json:"styles"`
}

// Result is the top-level recognition document as produced by the
// analysis service.
type Result struct {
	Status              string        `json:"status"`
	CreatedDateTime     string        `json:"createdDateTime"`
	LastUpdatedDateTime string        `json:"lastUpdatedDateTime"`
	AnalyzeResult       AnalyzeResult `json:"analyzeResult"`
}
