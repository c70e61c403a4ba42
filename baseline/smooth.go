package baseline

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/poiesic/ramanid/core"
)

// SmoothParams configures Savitzky-Golay smoothing.
type SmoothParams struct {
	Window int // samples; even values are raised to the next odd value
	Order  int // polynomial order, must be below Window
}

// DefaultSmoothParams returns an 11 point window with a cubic fit.
func DefaultSmoothParams() SmoothParams {
	return SmoothParams{Window: 11, Order: 3}
}

// Normalize applies the odd-window rule and validates the parameters
// against a spectrum of n points.
func (p SmoothParams) Normalize(n int) (SmoothParams, error) {
	if p.Window%2 == 0 {
		p.Window++
	}
	if p.Order < 0 {
		return p, fmt.Errorf("%w: smoothing order must not be negative, got %d", core.ErrInvalidInput, p.Order)
	}
	if p.Window <= p.Order {
		return p, fmt.Errorf("%w: smoothing window %d must exceed order %d", core.ErrInvalidInput, p.Window, p.Order)
	}
	if p.Window > n {
		return p, fmt.Errorf("%w: smoothing window %d exceeds %d data points", core.ErrInvalidInput, p.Window, n)
	}
	return p, nil
}

// Smooth applies a Savitzky-Golay filter. Interior points use the
// convolution coefficients of the centered window; the first and last
// half-windows are evaluated from a polynomial fitted to the first and last
// full window.
func Smooth(y []float64, params SmoothParams) ([]float64, error) {
	params, err := params.Normalize(len(y))
	if err != nil {
		return nil, err
	}
	n, w, half := len(y), params.Window, params.Window/2

	coeffs, err := savgolCoefficients(w, params.Order)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := half; i < n-half; i++ {
		v := 0.0
		for j, c := range coeffs {
			v += c * y[i-half+j]
		}
		out[i] = v
	}

	position := func(i int) float64 { return float64(i - half) }
	head, err := fitPolynomial(w, params.Order, position, y[:w])
	if err != nil {
		return nil, err
	}
	for i := range half {
		out[i] = evalPolynomial(head, position(i))
	}
	tail, err := fitPolynomial(w, params.Order, position, y[n-w:])
	if err != nil {
		return nil, err
	}
	for i := w - half; i < w; i++ {
		out[n-w+i] = evalPolynomial(tail, position(i))
	}
	return out, nil
}

// savgolCoefficients returns the weights that evaluate the least squares
// polynomial of the given order at the window center.
func savgolCoefficients(window, order int) ([]float64, error) {
	half := window / 2
	j := mat.NewDense(window, order+1, nil)
	for i := range window {
		x, p := float64(i-half), 1.0
		for k := 0; k <= order; k++ {
			j.Set(i, k, p)
			p *= x
		}
	}

	var jtj mat.Dense
	jtj.Mul(j.T(), j)
	e0 := mat.NewVecDense(order+1, nil)
	e0.SetVec(0, 1)

	var u mat.VecDense
	if err := u.SolveVec(&jtj, e0); err != nil {
		return nil, fmt.Errorf("%w: smoothing coefficients: %w", core.ErrComputation, err)
	}

	var c mat.VecDense
	c.MulVec(j, &u)
	coeffs := make([]float64, window)
	for i := range coeffs {
		coeffs[i] = c.AtVec(i)
	}
	return coeffs, nil
}
