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

// Package baseline estimates the slowly varying background of a Raman
// spectrum so it can be subtracted before peak analysis.
//
// # Methods
//
//   - ALS: asymmetric least squares (Eilers and Boelens). Each iteration
//     solves (W + λDᵀD)z = Wy with a banded Cholesky factorization, where D
//     is the second difference operator, then reweights points above the
//     baseline with p and points at or below it with 1-p.
//   - Linear: a straight line between the first and last intensity.
//   - Polynomial: a least squares quadratic over the sample index.
//   - MovingAverage: a box filter of width max(N/20, 5) using
//     "same" mode convolution. Samples outside the spectrum count as zero and
//     every output is divided by the full window width, so edge values are
//     pulled toward zero.
//
// # Usage
//
//	bl, err := baseline.Estimate(intensities, baseline.DefaultParams())
//	if err != nil {
//	    return err
//	}
//	corrected := baseline.Subtract(intensities, bl)
//	final := baseline.ClipNegative(corrected)
//
// Subtract never clips; ClipNegative is applied only when a correction is
// committed. Smooth applies a Savitzky-Golay filter.
//
// All functions are pure and safe for concurrent use.
package baseline
