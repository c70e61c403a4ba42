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

import (
	"fmt"
	"math"
)

// ValidateSpectrum validates a Spectrum according to domain rules.
//
// Validation rules:
//   - Wavenumbers and Intensities must not be empty
//   - Wavenumbers and Intensities must have the same length
//   - All values must be finite
//
// NOT validated:
//   - Ordering (scoring sorts a copy when needed)
//   - Metadata
func ValidateSpectrum(s *Spectrum) error {
	if s == nil {
		return fmt.Errorf("%w: spectrum is nil", ErrInvalidSpectrum)
	}
	if err := validateArrays(s.Wavenumbers, s.Intensities); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSpectrum, err)
	}
	return nil
}

// ValidateEntry validates a DatabaseEntry according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Spectral arrays follow the ValidateSpectrum rules
//
// NOT validated (populated by ingestion):
//   - Peaks (may be empty until detection runs)
//   - Id (derived from Name on storage)
func ValidateEntry(entry *DatabaseEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}
	if entry.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyName)
	}
	if err := validateArrays(entry.Wavenumbers, entry.Intensities); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidEntry, entry.Name, err)
	}
	return nil
}

// ValidateClassification validates a ClassificationRecord.
func ValidateClassification(record *ClassificationRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidClassification)
	}
	if record.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidClassification, ErrEmptyName)
	}
	return nil
}

func validateArrays(wavenumbers, intensities []float64) error {
	if len(wavenumbers) == 0 || len(intensities) == 0 {
		return ErrEmptySpectrum
	}
	if len(wavenumbers) != len(intensities) {
		return fmt.Errorf("%w: %d wavenumbers, %d intensities", ErrLengthMismatch, len(wavenumbers), len(intensities))
	}
	if !AllFinite(wavenumbers) || !AllFinite(intensities) {
		return ErrNonFinite
	}
	return nil
}

// AllFinite reports whether every value is neither NaN nor infinite.
func AllFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
