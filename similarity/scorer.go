package similarity

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/peaks"
)

// Scoring constants.
const (
	DefaultPeakTolerance = 20.0 // cm⁻¹

	candidatePeakHeight = 0.1 // fraction of candidate maximum
	peakMatchWeight     = 0.7
	peakIntensityWeight = 0.3

	dtwMaxPoints  = 200
	dtwMinOverlap = 0.3 // fraction of the smaller spectrum's range
	dtwDecay      = 2.0

	combinedCorrelationWeight = 0.3
	combinedDTWWeight         = 0.7
)

// Query is a prepared query spectrum. Peaks are required by the Peak
// algorithm and ignored by the others.
type Query struct {
	Spectrum core.Spectrum
	Peaks    []core.Peak
}

// Result is a similarity score and how it was obtained.
type Result struct {
	Score     float64
	Algorithm Algorithm // algorithm actually used
	FellBack  bool      // DTW was requested but unavailable
}

// Scorer computes similarity scores. It holds no mutable state after
// construction and is safe for concurrent use.
type Scorer struct {
	aligner       Aligner
	peakTolerance float64
	logger        *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer) error

// WithAligner sets the DTW implementation. Passing nil disables DTW so that
// DTW and Combined fall back to Correlation.
// Default is DynamicAligner{}.
func WithAligner(aligner Aligner) Option {
	return func(s *Scorer) error {
		s.aligner = aligner
		return nil
	}
}

// WithPeakTolerance sets the peak matching tolerance in cm⁻¹.
// Default is 20.
func WithPeakTolerance(tolerance float64) Option {
	return func(s *Scorer) error {
		if !(tolerance > 0) {
			return fmt.Errorf("%w: peak tolerance must be positive, got %g", core.ErrInvalidInput, tolerance)
		}
		s.peakTolerance = tolerance
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewScorer creates a Scorer.
func NewScorer(opts ...Option) (*Scorer, error) {
	s := &Scorer{
		aligner:       DynamicAligner{},
		peakTolerance: DefaultPeakTolerance,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DTWAvailable reports whether an Aligner is configured.
func (s *Scorer) DTWAvailable() bool {
	return s.aligner != nil
}

// Score compares candidate against the query. Invalid spectra are errors;
// spectra that simply do not overlap score 0.
func (s *Scorer) Score(q *Query, candidate *core.Spectrum, alg Algorithm) (Result, error) {
	if !alg.Valid() {
		return Result{}, fmt.Errorf("%w: unknown algorithm %d", core.ErrInvalidInput, int(alg))
	}
	if q == nil {
		return Result{}, fmt.Errorf("%w: query is nil", core.ErrInvalidInput)
	}
	if err := core.ValidateSpectrum(&q.Spectrum); err != nil {
		return Result{}, fmt.Errorf("query: %w", err)
	}
	if err := core.ValidateSpectrum(candidate); err != nil {
		return Result{}, fmt.Errorf("candidate: %w", err)
	}

	query := ascending(&q.Spectrum)
	cand := ascending(candidate)

	if (alg == DTW || alg == Combined) && s.aligner == nil {
		s.logger.Debug("DTW unavailable, falling back to correlation", "requested", alg)
		score, err := correlationScore(&query, &cand)
		if err != nil {
			return Result{}, err
		}
		return Result{Score: score, Algorithm: Correlation, FellBack: true}, nil
	}

	result := Result{Algorithm: alg}
	switch alg {
	case Correlation:
		score, err := correlationScore(&query, &cand)
		if err != nil {
			return Result{}, err
		}
		result.Score = score
	case Peak:
		result.Score = s.peakScore(&query, q.Peaks, &cand)
	case DTW:
		score, err := s.dtwScore(&query, &cand)
		if err != nil {
			return Result{}, err
		}
		result.Score = score
	case Combined:
		dtw, err := s.dtwScore(&query, &cand)
		if err != nil {
			return Result{}, err
		}
		corr, err := correlationScore(&query, &cand)
		if err != nil {
			return Result{}, err
		}
		result.Score = clip01(combinedCorrelationWeight*corr + combinedDTWWeight*dtw)
	}
	return result, nil
}

// correlationScore is |pearson| over the shared range.
func correlationScore(a, b *core.Spectrum) (float64, error) {
	lo, hi, ok := overlap(a, b)
	if !ok {
		return 0, nil
	}
	n := min(a.Len(), b.Len())
	if n < 2 {
		return 0, nil
	}
	r, err := resample(a, b, lo, hi, n)
	if err != nil {
		return 0, err
	}
	if flat(r.a) || flat(r.b) {
		return 0, nil
	}
	return clip01(math.Abs(stat.Correlation(r.a, r.b, nil))), nil
}

// dtwScore maps the DTW cost of the normalized signals to a similarity.
func (s *Scorer) dtwScore(a, b *core.Spectrum) (float64, error) {
	lo, hi, ok := overlap(a, b)
	if !ok {
		return 0, nil
	}
	if hi-lo < dtwMinOverlap*min(span(a), span(b)) {
		return 0, nil
	}
	n := min(dtwMaxPoints, a.Len(), b.Len())
	if n < 2 {
		return 0, nil
	}
	r, err := resample(a, b, lo, hi, n)
	if err != nil {
		return 0, err
	}
	if flat(r.a) || flat(r.b) {
		return 0, nil
	}
	minMaxNormalize(r.a)
	minMaxNormalize(r.b)

	alignment, err := s.aligner.Align(r.a, r.b)
	if err != nil {
		return 0, err
	}
	if alignment.PathLength == 0 {
		return 0, nil
	}
	return clip01(math.Exp(-dtwDecay * alignment.Cost / float64(alignment.PathLength))), nil
}

// peakScore matches query peaks to peaks detected on the candidate.
func (s *Scorer) peakScore(query *core.Spectrum, queryPeaks []core.Peak, cand *core.Spectrum) float64 {
	if len(queryPeaks) == 0 {
		return 0
	}
	if _, _, ok := overlap(query, cand); !ok {
		return 0
	}

	candMax := 0.0
	for _, v := range cand.Intensities {
		candMax = max(candMax, v)
	}
	indices, err := peaks.Detect(cand.Intensities, peaks.Params{Height: candidatePeakHeight * candMax, Distance: 1})
	if err != nil || len(indices) == 0 {
		return 0
	}

	queryScale := peakScale(len(queryPeaks), func(i int) float64 { return queryPeaks[i].Intensity })
	candScale := peakScale(len(indices), func(i int) float64 { return cand.Intensities[indices[i]] })

	matched := 0
	diffSum := 0.0
	for _, qp := range queryPeaks {
		nearest, ok := nearestPeak(cand.Wavenumbers, indices, qp.Wavenumber)
		if !ok || math.Abs(cand.Wavenumbers[nearest]-qp.Wavenumber) > s.peakTolerance {
			continue
		}
		matched++
		diffSum += math.Abs(qp.Intensity/queryScale - cand.Intensities[nearest]/candScale)
	}
	if matched == 0 {
		return 0
	}

	matchRatio := float64(matched) / float64(len(queryPeaks))
	meanDiff := diffSum / float64(matched)
	return clip01(peakMatchWeight*matchRatio + peakIntensityWeight*(1-meanDiff))
}

// peakScale returns the largest peak magnitude, or 1 when all are zero.
func peakScale(n int, intensity func(int) float64) float64 {
	scale := 0.0
	for i := range n {
		scale = max(scale, math.Abs(intensity(i)))
	}
	if scale == 0 {
		return 1
	}
	return scale
}

// nearestPeak returns the spectrum index of the peak closest to target.
// indices must be ascending, so their wavenumbers are too.
func nearestPeak(wavenumbers []float64, indices []int, target float64) (int, bool) {
	if len(indices) == 0 {
		return 0, false
	}
	k := sort.Search(len(indices), func(i int) bool { return wavenumbers[indices[i]] >= target })
	switch {
	case k == 0:
		return indices[0], true
	case k == len(indices):
		return indices[k-1], true
	}
	below, above := indices[k-1], indices[k]
	if target-wavenumbers[below] <= wavenumbers[above]-target {
		return below, true
	}
	return above, true
}
