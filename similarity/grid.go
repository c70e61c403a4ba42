package similarity

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"github.com/poiesic/ramanid/core"
)

// ascending returns s when its wavenumbers are strictly increasing and a
// sorted copy otherwise.
func ascending(s *core.Spectrum) core.Spectrum {
	for i := 1; i < len(s.Wavenumbers); i++ {
		if s.Wavenumbers[i] <= s.Wavenumbers[i-1] {
			return s.Sorted()
		}
	}
	return *s
}

// overlap returns the shared wavenumber interval of two ascending spectra.
// ok is false when the intersection is empty or has zero width.
func overlap(a, b *core.Spectrum) (lo, hi float64, ok bool) {
	if len(a.Wavenumbers) < 2 || len(b.Wavenumbers) < 2 {
		return 0, 0, false
	}
	lo = max(a.Wavenumbers[0], b.Wavenumbers[0])
	hi = min(a.Wavenumbers[len(a.Wavenumbers)-1], b.Wavenumbers[len(b.Wavenumbers)-1])
	return lo, hi, hi > lo
}

// span returns the width of an ascending spectrum's wavenumber range.
func span(s *core.Spectrum) float64 {
	if len(s.Wavenumbers) == 0 {
		return 0
	}
	return s.Wavenumbers[len(s.Wavenumbers)-1] - s.Wavenumbers[0]
}

// resampled holds both spectra on a shared grid.
type resampled struct {
	grid []float64
	a, b []float64
}

// resample interpolates two ascending spectra onto n evenly spaced points
// between lo and hi.
func resample(a, b *core.Spectrum, lo, hi float64, n int) (resampled, error) {
	grid := floats.Span(make([]float64, n), lo, hi)
	ra, err := interpolate(a, grid)
	if err != nil {
		return resampled{}, err
	}
	rb, err := interpolate(b, grid)
	if err != nil {
		return resampled{}, err
	}
	return resampled{grid: grid, a: ra, b: rb}, nil
}

// interpolate evaluates an ascending spectrum at each grid point.
func interpolate(s *core.Spectrum, grid []float64) ([]float64, error) {
	var pl interp.PiecewiseLinear
	if err := pl.Fit(s.Wavenumbers, s.Intensities); err != nil {
		return nil, fmt.Errorf("%w: interpolating %d points: %v", core.ErrInvalidInput, len(s.Wavenumbers), err)
	}
	out := make([]float64, len(grid))
	for i, x := range grid {
		out[i] = pl.Predict(x)
	}
	return out, nil
}

// flat reports whether a series has no variance.
func flat(x []float64) bool {
	return stat.Variance(x, nil) == 0
}

// minMaxNormalize rescales x into [0, 1] in place.
func minMaxNormalize(x []float64) {
	lo, hi := floats.Min(x), floats.Max(x)
	width := hi - lo
	if width == 0 {
		for i := range x {
			x[i] = 0
		}
		return
	}
	for i := range x {
		x[i] = (x[i] - lo) / width
	}
}

func clip01(v float64) float64 {
	if v != v { // NaN
		return 0
	}
	return min(max(v, 0), 1)
}
