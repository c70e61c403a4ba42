package core

import (
	"encoding/binary"
	"math"
	"slices"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing of the entry name.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Well known metadata keys. Historical data also uses title case and
// underscore variants of these; see the filter package.
const (
	MetaChemicalFamily       = "CHEMICAL FAMILY"
	MetaHeyClassification    = "HEY CLASSIFICATION"
	MetaChemistryElements    = "CHEMISTRY ELEMENTS"
	MetaFormula              = "FORMULA"
	MetaMineralName          = "MINERAL NAME"
	MetaClassificationSource = "HEY CLASSIFICATION SOURCE"
)

// Spectrum is a measured Raman spectrum.
// Wavenumbers are expected in ascending order but need not be evenly spaced.
type Spectrum struct {
	Wavenumbers []float64
	Intensities []float64
	Metadata    map[string]string
}

// Len returns the number of data points.
func (s *Spectrum) Len() int {
	return len(s.Intensities)
}

// Range returns the minimum and maximum wavenumber.
func (s *Spectrum) Range() (lo, hi float64) {
	if len(s.Wavenumbers) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, w := range s.Wavenumbers {
		lo = min(lo, w)
		hi = max(hi, w)
	}
	return lo, hi
}

// Sorted returns a copy of the spectrum ordered by ascending wavenumber.
// Points sharing a wavenumber keep only the first occurrence so the result
// is strictly increasing.
func (s *Spectrum) Sorted() Spectrum {
	n := min(len(s.Wavenumbers), len(s.Intensities))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case s.Wavenumbers[a] < s.Wavenumbers[b]:
			return -1
		case s.Wavenumbers[a] > s.Wavenumbers[b]:
			return 1
		}
		return 0
	})

	out := Spectrum{
		Wavenumbers: make([]float64, 0, n),
		Intensities: make([]float64, 0, n),
		Metadata:    s.Metadata,
	}
	for _, i := range order {
		w := s.Wavenumbers[i]
		if k := len(out.Wavenumbers); k > 0 && out.Wavenumbers[k-1] == w {
			continue
		}
		out.Wavenumbers = append(out.Wavenumbers, w)
		out.Intensities = append(out.Intensities, s.Intensities[i])
	}
	return out
}

// Peak is a single detected peak. Index refers into the spectrum that
// produced it and is meaningless for any other spectrum.
type Peak struct {
	Index      int
	Wavenumber float64
	Intensity  float64
}

// PeakKind tags the representation held by PeakData.
type PeakKind uint8

const (
	// PeakKindNone means no peak data is available.
	PeakKindNone PeakKind = iota
	// PeakKindWavenumbers holds peak positions in cm⁻¹.
	PeakKindWavenumbers
	// PeakKindIndices holds legacy sample indices into the owning spectrum.
	PeakKindIndices
)

// PeakData stores the peaks of a database entry either as wavenumbers or,
// for entries imported from older databases, as indices.
type PeakData struct {
	Kind        PeakKind
	Wavenumbers []float64
	Indices     []int
}

// WavenumberPeaks wraps peak positions given in cm⁻¹.
func WavenumberPeaks(wavenumbers []float64) PeakData {
	if len(wavenumbers) == 0 {
		return PeakData{}
	}
	return PeakData{Kind: PeakKindWavenumbers, Wavenumbers: wavenumbers}
}

// IndexPeaks wraps legacy peak indices.
func IndexPeaks(indices []int) PeakData {
	if len(indices) == 0 {
		return PeakData{}
	}
	return PeakData{Kind: PeakKindIndices, Indices: indices}
}

// PeakDataFromPeaks records the wavenumbers of detected peaks.
func PeakDataFromPeaks(peaks []Peak) PeakData {
	ws := make([]float64, len(peaks))
	for i, p := range peaks {
		ws[i] = p.Wavenumber
	}
	return WavenumberPeaks(ws)
}

// legacyMinWavenumber drops positions that are almost certainly indices
// mistaken for wavenumbers.
const legacyMinWavenumber = 50

// LegacyPeakData interprets an untyped list of peak values from an older
// database. A list of integral values that all fit inside the spectrum is
// taken as indices; anything else is treated as wavenumbers, keeping only
// values above 50 cm⁻¹.
func LegacyPeakData(values []float64, wavenumbers []float64) PeakData {
	if len(values) == 0 {
		return PeakData{}
	}
	indices := make([]int, 0, len(values))
	for _, v := range values {
		if v != math.Trunc(v) || v < 0 || int(v) >= len(wavenumbers) {
			indices = nil
			break
		}
		indices = append(indices, int(v))
	}
	if indices != nil {
		return IndexPeaks(indices)
	}

	ws := make([]float64, 0, len(values))
	for _, v := range values {
		if v > legacyMinWavenumber {
			ws = append(ws, v)
		}
	}
	return WavenumberPeaks(ws)
}

// IsEmpty reports whether no peak positions are available.
func (p PeakData) IsEmpty() bool {
	switch p.Kind {
	case PeakKindWavenumbers:
		return len(p.Wavenumbers) == 0
	case PeakKindIndices:
		return len(p.Indices) == 0
	}
	return true
}

// Resolve returns peak positions in cm⁻¹. Indices are converted using the
// owning spectrum's wavenumbers; out of range indices are skipped.
func (p PeakData) Resolve(wavenumbers []float64) []float64 {
	switch p.Kind {
	case PeakKindWavenumbers:
		return p.Wavenumbers
	case PeakKindIndices:
		out := make([]float64, 0, len(p.Indices))
		for _, idx := range p.Indices {
			if idx < 0 || idx >= len(wavenumbers) {
				continue
			}
			out = append(out, wavenumbers[idx])
		}
		return out
	}
	return nil
}

// Canonical converts any representation to PeakKindWavenumbers.
func (p PeakData) Canonical(wavenumbers []float64) PeakData {
	if p.Kind == PeakKindWavenumbers {
		return p
	}
	return WavenumberPeaks(p.Resolve(wavenumbers))
}

// DatabaseEntry is a reference spectrum stored under a unique name.
type DatabaseEntry struct {
	Id          ID
	Name        string
	Wavenumbers []float64
	Intensities []float64
	Metadata    map[string]string
	Peaks       PeakData
	InsertedAt  time.Time // When the entry was first stored
	UpdatedAt   time.Time // When the entry was last overwritten
}

// Spectrum returns a view of the entry's spectral data.
func (e *DatabaseEntry) Spectrum() Spectrum {
	return Spectrum{
		Wavenumbers: e.Wavenumbers,
		Intensities: e.Intensities,
		Metadata:    e.Metadata,
	}
}

// PeakPositions returns the entry's peak wavenumbers.
func (e *DatabaseEntry) PeakPositions() []float64 {
	return e.Peaks.Resolve(e.Wavenumbers)
}

// Extra keys carried by ClassificationRecord.
const (
	ClassIMANumber       = "IMA Number"
	ClassRRUFFID         = "RRUFF ID"
	ClassStructuralGroup = "Structural Groupname"
	ClassCrystalSystem   = "Crystal System"
	ClassSpaceGroups     = "Space Groups"
	ClassOldestAge       = "Oldest Known Age (Ma)"
	ClassParagenesis     = "Paragenetic Modes"
	ClassElements        = "Chemistry Elements"
)

// ClassificationRecord is one row of the mineral taxonomy.
type ClassificationRecord struct {
	Name              string
	HeyClassification string
	Extra             map[string]string
}

// MatchResult is a ranked search hit. It is produced per search and never stored.
type MatchResult struct {
	Name     string
	Score    float64
	Metadata map[string]string
	Peaks    PeakData
}

// Checkpoint records how far a bulk processor has progressed.
// Entries are processed in name order, so LastName is a resume point.
type Checkpoint struct {
	ProcessorType string
	LastName      string
	UpdatedAt     time.Time
}
