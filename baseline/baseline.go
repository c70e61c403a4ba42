package baseline

import (
	"fmt"
	"strings"

	"github.com/poiesic/ramanid/core"
)

// Method selects a baseline estimation algorithm.
type Method int

const (
	// MethodALS is asymmetric least squares.
	MethodALS Method = iota
	// MethodLinear is a straight line between the end points.
	MethodLinear
	// MethodPolynomial is a quadratic least squares fit.
	MethodPolynomial
	// MethodMovingAverage is a box filter.
	MethodMovingAverage
)

var methodNames = map[Method]string{
	MethodALS:           "als",
	MethodLinear:        "linear",
	MethodPolynomial:    "polynomial",
	MethodMovingAverage: "moving_average",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod converts a method name into a Method. Hyphens and spaces are
// accepted in place of underscores.
func ParseMethod(name string) (Method, error) {
	normalized := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(name)))
	for m, n := range methodNames {
		if n == normalized {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown baseline method %q", core.ErrInvalidInput, name)
}

// Params selects a method and its tuning.
// ALS is only consulted when Method is MethodALS.
type Params struct {
	Method Method
	ALS    ALSParams
}

// DefaultParams returns ALS with its default tuning.
func DefaultParams() Params {
	return Params{
		Method: MethodALS,
		ALS:    DefaultALSParams(),
	}
}

// Estimate computes a baseline with the same length as intensities.
func Estimate(intensities []float64, params Params) ([]float64, error) {
	switch params.Method {
	case MethodALS:
		return ALS(intensities, params.ALS)
	case MethodLinear:
		return Linear(intensities), nil
	case MethodPolynomial:
		return Polynomial(intensities)
	case MethodMovingAverage:
		return MovingAverage(intensities), nil
	}
	return nil, fmt.Errorf("%w: unknown baseline method %d", core.ErrInvalidInput, int(params.Method))
}

// Correct estimates a baseline and subtracts it. The corrected values are
// not clipped.
func Correct(intensities []float64, params Params) (corrected, bl []float64, err error) {
	bl, err = Estimate(intensities, params)
	if err != nil {
		return nil, nil, err
	}
	return Subtract(intensities, bl), bl, nil
}

// Subtract returns intensities minus baseline. Negative results are kept.
func Subtract(intensities, bl []float64) []float64 {
	n := min(len(intensities), len(bl))
	out := make([]float64, n)
	for i := range n {
		out[i] = intensities[i] - bl[i]
	}
	return out
}

// ClipNegative returns a copy with negative values replaced by zero.
func ClipNegative(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = max(v, 0)
	}
	return out
}
