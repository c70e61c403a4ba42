package peaks

import (
	"fmt"
	"math"

	"github.com/poiesic/ramanid/core"
)

// Relative expresses height and prominence as fractions of the spectrum
// maximum, the way thresholds are entered on the search path.
type Relative struct {
	HeightFraction     float64
	ProminenceFraction float64
	Distance           int
}

// DefaultRelative returns 5% height, 2% prominence and a distance of 1% of
// the spectrum length (at least one sample).
func DefaultRelative(n int) Relative {
	return Relative{
		HeightFraction:     0.05,
		ProminenceFraction: 0.02,
		Distance:           max(n/100, 1),
	}
}

// Absolute converts the fractions into thresholds for intensities.
func (r Relative) Absolute(intensities []float64) (Params, error) {
	if r.HeightFraction < 0 || r.ProminenceFraction < 0 ||
		math.IsNaN(r.HeightFraction) || math.IsNaN(r.ProminenceFraction) {
		return Params{}, fmt.Errorf("%w: peak fractions must not be negative", core.ErrInvalidInput)
	}
	peak := 0.0
	for _, v := range intensities {
		peak = max(peak, v)
	}
	p := Params{
		Height:     r.HeightFraction * peak,
		Distance:   r.Distance,
		Prominence: r.ProminenceFraction * peak,
	}
	return p, p.Validate()
}

// DetectRelative converts r against intensities and runs Detect.
func DetectRelative(intensities []float64, r Relative) ([]int, error) {
	p, err := r.Absolute(intensities)
	if err != nil {
		return nil, err
	}
	return Detect(intensities, p)
}
