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

// Package taxonomy resolves mineral names against a classification table.
//
// A Resolver is built once from ClassificationRecords and is read-only
// afterwards, so a single instance can be shared by concurrent callers.
// Lookups try, in order: the name as given, its cleaned form, containment
// of the cleaned form in a known name, and finally fuzzy matching by
// sequence similarity ratio. A name that cannot be resolved is reported
// through the boolean result rather than an error.
//
// Database entry names such as "Quartz__R040031__Raman__532" are reduced to
// a mineral name with ExtractMineralName before lookup; Classify combines
// extraction, resolution and a more aggressive BaseName retry.
package taxonomy
