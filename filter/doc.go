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

// Package filter narrows database entries by metadata before similarity
// scoring.
//
// Each criterion is optional and all present criteria must hold. Entries
// lacking the data a criterion needs fail it: an entry without peaks never
// satisfies a peak filter, and one without element data never satisfies an
// element filter.
//
// Contradictory criteria, such as requiring and excluding the same element,
// are not detected; they simply reject every entry.
package filter
