package peaks

import (
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/ramanid/core"
)

// Params holds absolute detection thresholds.
// Height and Prominence are disabled when not positive; Distance must be at
// least 1 (1 disables the constraint).
type Params struct {
	Height     float64
	Distance   int
	Prominence float64
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if p.Distance <= 0 {
		return fmt.Errorf("%w: peak distance must be positive, got %d", core.ErrInvalidInput, p.Distance)
	}
	if math.IsNaN(p.Height) || math.IsNaN(p.Prominence) {
		return fmt.Errorf("%w: peak thresholds must not be NaN", core.ErrInvalidInput)
	}
	return nil
}

// Detect returns the ascending indices of peaks satisfying params.
// An empty spectrum yields an empty result.
func Detect(intensities []float64, params Params) ([]int, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	candidates := localMaxima(intensities)

	if params.Height > 0 {
		candidates = slices.DeleteFunc(candidates, func(i int) bool {
			return intensities[i] < params.Height
		})
	}
	if params.Distance > 1 && len(candidates) > 1 {
		candidates = selectByDistance(intensities, candidates, params.Distance)
	}
	if params.Prominence > 0 {
		candidates = slices.DeleteFunc(candidates, func(i int) bool {
			return Prominence(intensities, i) < params.Prominence
		})
	}
	if candidates == nil {
		candidates = []int{}
	}
	return candidates, nil
}

// Find runs Detect on a spectrum and returns peak records.
func Find(spectrum *core.Spectrum, params Params) ([]core.Peak, error) {
	if err := core.ValidateSpectrum(spectrum); err != nil {
		return nil, err
	}
	indices, err := Detect(spectrum.Intensities, params)
	if err != nil {
		return nil, err
	}
	out := make([]core.Peak, len(indices))
	for i, idx := range indices {
		out[i] = core.Peak{
			Index:      idx,
			Wavenumber: spectrum.Wavenumbers[idx],
			Intensity:  spectrum.Intensities[idx],
		}
	}
	return out, nil
}

// localMaxima returns candidate indices in ascending order.
func localMaxima(x []float64) []int {
	var out []int
	i := 1
	last := len(x) - 1
	for i < last {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < last && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				out = append(out, (i+ahead-1)/2)
				i = ahead
				continue
			}
		}
		i++
	}
	return out
}

// selectByDistance keeps the tallest peaks such that no two survivors are
// closer than distance samples.
func selectByDistance(x []float64, candidates []int, distance int) []int {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ha, hb := x[candidates[a]], x[candidates[b]]
		switch {
		case ha > hb:
			return -1
		case ha < hb:
			return 1
		}
		return 0
	})

	keep := make([]bool, len(candidates))
	for i := range keep {
		keep[i] = true
	}
	for _, pos := range order {
		if !keep[pos] {
			continue
		}
		for j := pos - 1; j >= 0 && candidates[pos]-candidates[j] < distance; j-- {
			keep[j] = false
		}
		for j := pos + 1; j < len(candidates) && candidates[j]-candidates[pos] < distance; j++ {
			keep[j] = false
		}
	}

	out := make([]int, 0, len(candidates))
	for i, idx := range candidates {
		if keep[i] {
			out = append(out, idx)
		}
	}
	return out
}

// Prominence returns how far the sample at peak stands above the higher of
// its two flanking minima.
func Prominence(x []float64, peak int) float64 {
	if peak < 0 || peak >= len(x) {
		return 0
	}
	height := x[peak]

	leftMin := height
	for i := peak - 1; i >= 0 && x[i] <= height; i-- {
		leftMin = min(leftMin, x[i])
	}
	rightMin := height
	for i := peak + 1; i < len(x) && x[i] <= height; i++ {
		rightMin = min(rightMin, x[i])
	}
	return height - max(leftMin, rightMin)
}
