package baseline

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/poiesic/ramanid/core"
)

const (
	polynomialOrder     = 2
	minMovingAvgWindow  = 5
	movingAvgWindowFrac = 20
)

// Linear returns the straight line joining the first and last intensity.
func Linear(y []float64) []float64 {
	n := len(y)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = y[0]
		return out
	}
	first, last := y[0], y[n-1]
	step := (last - first) / float64(n-1)
	for i := range out {
		out[i] = first + step*float64(i)
	}
	out[n-1] = last
	return out
}

// Polynomial fits a quadratic in the sample index by least squares.
func Polynomial(y []float64) ([]float64, error) {
	n := len(y)
	if n == 0 {
		return []float64{}, nil
	}
	order := min(polynomialOrder, n-1)
	if order == 0 {
		return slices.Clone(y), nil
	}

	// Scale the index to [0, 1] to keep the Vandermonde matrix well conditioned.
	scale := 1 / float64(n-1)
	coeffs, err := fitPolynomial(n, order, func(i int) float64 { return float64(i) * scale }, y)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = evalPolynomial(coeffs, float64(i)*scale)
	}
	return out, nil
}

// MovingAverage applies a box filter of width max(N/20, 5) with zero padded
// "same" convolution. The window is centered with its extra sample on the
// left when the width is even.
func MovingAverage(y []float64) []float64 {
	n := len(y)
	window := max(n/movingAvgWindowFrac, minMovingAvgWindow)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	prefix := make([]float64, n+1)
	for i, v := range y {
		prefix[i+1] = prefix[i] + v
	}

	offset := (window - 1) / 2
	for i := range out {
		hi := min(i+offset, n-1)
		lo := max(i+offset-window+1, 0)
		if lo > hi {
			continue
		}
		out[i] = (prefix[hi+1] - prefix[lo]) / float64(window)
	}
	return out
}

// fitPolynomial solves the least squares problem for a polynomial of the
// given order over n samples at positions x(i). Coefficients are returned
// lowest order first.
func fitPolynomial(n, order int, x func(int) float64, y []float64) ([]float64, error) {
	a := mat.NewDense(n, order+1, nil)
	for i := range n {
		xi, p := x(i), 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, p)
			p *= xi
		}
	}
	var c mat.VecDense
	if err := c.SolveVec(a, mat.NewVecDense(n, slices.Clone(y[:n]))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: polynomial fit: %w", core.ErrComputation, err)
		}
	}
	coeffs := make([]float64, order+1)
	for j := range coeffs {
		coeffs[j] = c.AtVec(j)
	}
	return coeffs, nil
}

func evalPolynomial(coeffs []float64, x float64) float64 {
	v := 0.0
	for j := len(coeffs) - 1; j >= 0; j-- {
		v = v*x + coeffs[j]
	}
	return v
}
