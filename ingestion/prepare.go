package ingestion

import (
	"fmt"
	"maps"
	"slices"

	"github.com/poiesic/ramanid/baseline"
	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/peaks"
)

// DetectionConfig controls peak detection for entries stored without peaks.
type DetectionConfig struct {
	Disabled bool
	Baseline baseline.Params
	Peaks    peaks.Relative // zero means peaks.DefaultRelative for the entry length
}

// DefaultDetectionConfig detects peaks on the ALS corrected spectrum using
// default relative thresholds.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{Baseline: baseline.DefaultParams()}
}

// Prepare validates entry and returns a copy ready for storage. Stored peak
// data is converted to wavenumbers; missing peaks are detected unless
// detection is disabled. The caller's slices and map are not modified.
func Prepare(entry *core.DatabaseEntry, cfg DetectionConfig) (*core.DatabaseEntry, error) {
	if err := core.ValidateEntry(entry); err != nil {
		return nil, err
	}
	out := &core.DatabaseEntry{
		Name:        entry.Name,
		Wavenumbers: slices.Clone(entry.Wavenumbers),
		Intensities: slices.Clone(entry.Intensities),
		Metadata:    maps.Clone(entry.Metadata),
		Peaks:       entry.Peaks.Canonical(entry.Wavenumbers),
	}
	if !out.Peaks.IsEmpty() || cfg.Disabled {
		return out, nil
	}
	detected, err := DetectPeaks(out, cfg)
	if err != nil {
		return nil, err
	}
	out.Peaks = detected
	return out, nil
}

// DetectPeaks corrects the entry's baseline, clips the residue below zero
// and returns the positions of its peaks.
func DetectPeaks(entry *core.DatabaseEntry, cfg DetectionConfig) (core.PeakData, error) {
	spectrum := entry.Spectrum()
	spectrum = spectrum.Sorted()

	corrected, _, err := baseline.Correct(spectrum.Intensities, cfg.Baseline)
	if err != nil {
		return core.PeakData{}, fmt.Errorf("baseline for %q: %w", entry.Name, err)
	}
	spectrum.Intensities = baseline.ClipNegative(corrected)

	relative := cfg.Peaks
	if relative == (peaks.Relative{}) {
		relative = peaks.DefaultRelative(spectrum.Len())
	}
	params, err := relative.Absolute(spectrum.Intensities)
	if err != nil {
		return core.PeakData{}, fmt.Errorf("peaks for %q: %w", entry.Name, err)
	}
	found, err := peaks.Find(&spectrum, params)
	if err != nil {
		return core.PeakData{}, fmt.Errorf("peaks for %q: %w", entry.Name, err)
	}
	return core.PeakDataFromPeaks(found), nil
}
