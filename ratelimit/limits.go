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


package ratelimit

import "time"

// Actions subject to per-user rate limits.
const (
	ActionUpload  = "upload"
	ActionOCR     = "ocr"
	ActionExtract = "extract"
	ActionCore    = "core"
)

// Limit is a fixed-window quota: at most Calls calls per Window.
type Limit struct {
	Calls  uint64
	Window time.Duration
}

// UserLimits maps each action to its per-user quota.
var UserLimits = map[string]Limit{
	ActionUpload:  {Calls: 5, Window: 30 * time.Second},
	ActionOCR:     {Calls: 5, Window: 30 * time.Second},
	ActionExtract: {Calls: 10, Window: 30 * time.Second},
	ActionCore:    {Calls: 300, Window: 10 * time.Second},
}

// LimitFor returns the quota for an action and whether one is defined.
func LimitFor(action string) (Limit, bool) {
	limit, ok := UserLimits[action]
	return limit, ok
}
