package search

import (
	"fmt"

	"github.com/poiesic/ramanid/baseline"
	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/filter"
	"github.com/poiesic/ramanid/peaks"
	"github.com/poiesic/ramanid/similarity"
)

// Request defaults.
const (
	DefaultMaxResults = 10
	DefaultThreshold  = 0.5
)

// Request describes one search.
type Request struct {
	Query      core.Spectrum
	Algorithm  similarity.Algorithm
	MaxResults int
	Threshold  float64 // minimum score in [0, 1]
	Criteria   filter.Criteria

	// Smoothing, when set, applies a Savitzky-Golay filter to the query
	// before baseline correction.
	Smoothing *baseline.SmoothParams

	// Baseline, when set, is subtracted from the query before peak
	// detection and scoring.
	Baseline *baseline.Params

	// QueryPeaks are used as given. When empty and the algorithm needs
	// peaks they are detected with PeakDetection, or with
	// peaks.DefaultRelative when that is zero.
	QueryPeaks    []core.Peak
	PeakDetection peaks.Relative
}

// NewRequest returns a correlation search for query with default limits.
func NewRequest(query core.Spectrum) Request {
	return Request{
		Query:      query,
		Algorithm:  similarity.Correlation,
		MaxResults: DefaultMaxResults,
		Threshold:  DefaultThreshold,
	}
}

// Validate checks the request without touching the repository.
func (r *Request) Validate() error {
	if err := core.ValidateSpectrum(&r.Query); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if !r.Algorithm.Valid() {
		return fmt.Errorf("%w: unknown algorithm %d", ErrInvalidRequest, int(r.Algorithm))
	}
	if r.MaxResults <= 0 {
		return fmt.Errorf("%w: max results must be positive, got %d", ErrInvalidRequest, r.MaxResults)
	}
	if !(r.Threshold >= 0 && r.Threshold <= 1) {
		return fmt.Errorf("%w: threshold must be within [0, 1], got %g", ErrInvalidRequest, r.Threshold)
	}
	return nil
}
