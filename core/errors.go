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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidInput indicates malformed parameters passed to an algorithm.
	ErrInvalidInput = errors.New("invalid input")

	// ErrComputation indicates a numeric failure such as a singular system.
	ErrComputation = errors.New("computation failed")

	// ErrInvalidSpectrum indicates a Spectrum failed validation.
	ErrInvalidSpectrum = errors.New("invalid spectrum")

	// ErrInvalidEntry indicates a DatabaseEntry failed validation.
	ErrInvalidEntry = errors.New("invalid database entry")

	// ErrEmptySpectrum indicates a spectrum has no data points.
	ErrEmptySpectrum = errors.New("spectrum cannot be empty")

	// ErrLengthMismatch indicates wavenumber and intensity arrays differ in length.
	ErrLengthMismatch = errors.New("wavenumber and intensity lengths differ")

	// ErrNonFinite indicates a NaN or infinite value in spectral data.
	ErrNonFinite = errors.New("spectral data must be finite")

	// ErrEmptyName indicates the entry Name field is empty.
	ErrEmptyName = errors.New("entry name cannot be empty")

	// ErrInvalidClassification indicates a ClassificationRecord failed validation.
	ErrInvalidClassification = errors.New("invalid classification record")
)
