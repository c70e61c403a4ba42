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

// Package search ranks reference spectra against a query spectrum.
//
// An Engine runs a search in stages:
//   - validate the request and optionally baseline-correct the query
//   - detect query peaks when the algorithm needs them
//   - read every entry from the repository in one snapshot
//   - narrow candidates with the metadata filter
//   - score candidates in parallel on a worker pool
//   - keep scores at or above the threshold, best first
//
// When peak positions are the only criterion the search is peak-only:
// every passing entry is returned with score 1.0 in name order and no
// similarity is computed.
//
// A candidate that fails to score is logged and skipped. Problems with the
// request itself abort the search with ErrInvalidRequest.
package search
