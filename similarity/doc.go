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

// Package similarity scores how closely a candidate spectrum matches a query.
//
// Every algorithm returns a value in [0, 1], higher meaning more similar.
// Both spectra are first compared over the intersection of their wavenumber
// ranges; spectra that do not overlap score 0 rather than failing, because
// that is an ordinary outcome when ranking a whole database.
//
// # Algorithms
//
//   - Correlation: absolute Pearson correlation after linear resampling onto
//     a shared grid with as many points as the shorter spectrum.
//   - Peak: fraction of query peaks with a candidate peak within the
//     tolerance, blended with how well their relative intensities agree.
//   - DTW: dynamic time warping on min-max normalized signals resampled to
//     at most 200 points, mapped to exp(-2 * cost / pathLength).
//   - Combined: 0.3 * Correlation + 0.7 * DTW.
//
// # DTW availability
//
// The warping step is supplied by an Aligner. A Scorer built with
// WithAligner(nil) has no aligner; DTW and Combined then fall back to
// Correlation and report it through Result.FellBack.
package similarity
