package baseline

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/poiesic/ramanid/core"
)

// ALS defaults, matching the values offered by the interactive tool.
const (
	DefaultLambda     = 1e5
	DefaultAsymmetry  = 0.01
	DefaultIterations = 10
)

// bandwidth of DᵀD for the second difference operator
const alsBandwidth = 2

// ALSParams tunes asymmetric least squares.
type ALSParams struct {
	Lambda     float64 // smoothness, typically 1e3 to 1e7
	P          float64 // asymmetry, typically 0.001 to 0.05
	Iterations int
}

// DefaultALSParams returns lambda 1e5, p 0.01 and 10 iterations.
func DefaultALSParams() ALSParams {
	return ALSParams{
		Lambda:     DefaultLambda,
		P:          DefaultAsymmetry,
		Iterations: DefaultIterations,
	}
}

// Validate checks the parameters.
func (p ALSParams) Validate() error {
	if !(p.Lambda > 0) {
		return fmt.Errorf("%w: ALS lambda must be positive, got %g", core.ErrInvalidInput, p.Lambda)
	}
	if !(p.P > 0 && p.P < 1) {
		return fmt.Errorf("%w: ALS asymmetry must be in (0, 1), got %g", core.ErrInvalidInput, p.P)
	}
	if p.Iterations <= 0 {
		return fmt.Errorf("%w: ALS iterations must be positive, got %d", core.ErrInvalidInput, p.Iterations)
	}
	return nil
}

// ALS estimates a baseline by asymmetric least squares.
// Spectra shorter than three points have no curvature to penalize and are
// returned unchanged.
func ALS(y []float64, params ALSParams) ([]float64, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	n := len(y)
	if n < alsBandwidth+1 {
		return slices.Clone(y), nil
	}

	penalty := secondDifferencePenalty(n, params.Lambda)
	data := make([]float64, len(penalty))
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}

	z := mat.NewVecDense(n, nil)
	wy := mat.NewVecDense(n, nil)
	var chol mat.BandCholesky

	for range params.Iterations {
		copy(data, penalty)
		for i := range n {
			data[i*(alsBandwidth+1)] += weights[i]
			wy.SetVec(i, weights[i]*y[i])
		}

		if !chol.Factorize(mat.NewSymBandDense(n, alsBandwidth, data)) {
			return nil, fmt.Errorf("%w: ALS system is not positive definite", core.ErrComputation)
		}
		if err := chol.SolveVecTo(z, wy); err != nil {
			// Large lambda values give poorly conditioned but usable systems.
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return nil, fmt.Errorf("%w: %w", core.ErrComputation, err)
			}
		}

		for i := range n {
			if y[i] > z.AtVec(i) {
				weights[i] = params.P
			} else {
				weights[i] = 1 - params.P
			}
		}
	}

	out := make([]float64, n)
	for i := range n {
		out[i] = z.AtVec(i)
	}
	if !core.AllFinite(out) {
		return nil, fmt.Errorf("%w: ALS produced non-finite values", core.ErrComputation)
	}
	return out, nil
}

// secondDifferencePenalty returns λDᵀD in upper banded row-major storage
// with bandwidth 2, as consumed by mat.NewSymBandDense.
func secondDifferencePenalty(n int, lambda float64) []float64 {
	const stride = alsBandwidth + 1
	stencil := [stride]float64{1, -2, 1}
	data := make([]float64, n*stride)
	for k := 0; k+alsBandwidth < n; k++ {
		for a := range stride {
			for b := a; b < stride; b++ {
				data[(k+a)*stride+(b-a)] += lambda * stencil[a] * stencil[b]
			}
		}
	}
	return data
}
