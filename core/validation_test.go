package core

import (
	"errors"
	"math"
	"testing"
)

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *DatabaseEntry
		wantErr error
	}{
		{
			name: "valid entry",
			entry: &DatabaseEntry{
				Name:        "Quartz",
				Wavenumbers: []float64{100, 200},
				Intensities: []float64{1, 2},
			},
			wantErr: nil,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantErr: ErrInvalidEntry,
		},
		{
			name: "empty name",
			entry: &DatabaseEntry{
				Wavenumbers: []float64{100},
				Intensities: []float64{1},
			},
			wantErr: ErrEmptyName,
		},
		{
			name: "empty spectrum",
			entry: &DatabaseEntry{
				Name: "Quartz",
			},
			wantErr: ErrEmptySpectrum,
		},
		{
			name: "length mismatch",
			entry: &DatabaseEntry{
				Name:        "Quartz",
				Wavenumbers: []float64{100, 200},
				Intensities: []float64{1},
			},
			wantErr: ErrLengthMismatch,
		},
		{
			name: "NaN intensity",
			entry: &DatabaseEntry{
				Name:        "Quartz",
				Wavenumbers: []float64{100, 200},
				Intensities: []float64{1, math.NaN()},
			},
			wantErr: ErrNonFinite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntry(tt.entry)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEntry() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEntry() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("ValidateEntry() error = %v, should wrap ErrInvalidEntry", err)
			}
		})
	}
}

func TestValidateSpectrum(t *testing.T) {
	if err := ValidateSpectrum(&Spectrum{Wavenumbers: []float64{1}, Intensities: []float64{1}}); err != nil {
		t.Errorf("ValidateSpectrum() error = %v, want nil", err)
	}

	err := ValidateSpectrum(&Spectrum{})
	if !errors.Is(err, ErrInvalidSpectrum) || !errors.Is(err, ErrEmptySpectrum) {
		t.Errorf("ValidateSpectrum() error = %v, want empty spectrum", err)
	}

	if err := ValidateSpectrum(nil); !errors.Is(err, ErrInvalidSpectrum) {
		t.Errorf("ValidateSpectrum(nil) error = %v", err)
	}
}

func TestValidateClassification(t *testing.T) {
	if err := ValidateClassification(&ClassificationRecord{Name: "Quartz"}); err != nil {
		t.Errorf("ValidateClassification() error = %v", err)
	}
	if err := ValidateClassification(&ClassificationRecord{}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("ValidateClassification() error = %v, want ErrEmptyName", err)
	}
}
