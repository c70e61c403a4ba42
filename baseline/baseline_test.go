package baseline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ramanid/core"
)

// noisySpectrum returns a broad background with two sharp bands and a
// deterministic ripple.
func noisySpectrum(n int) []float64 {
	y := make([]float64, n)
	for i := range y {
		x := float64(i) / float64(n)
		background := 50 + 30*x + 20*x*x
		band := 200*math.Exp(-math.Pow(float64(i-n/3), 2)/8) + 120*math.Exp(-math.Pow(float64(i-2*n/3), 2)/18)
		ripple := 3 * math.Sin(float64(i)*1.7)
		y[i] = background + band + ripple
	}
	return y
}

func curvature(z []float64) float64 {
	total := 0.0
	for i := 1; i+1 < len(z); i++ {
		d := z[i-1] - 2*z[i] + z[i+1]
		total += d * d
	}
	return total
}

func TestALS_ConstantInput(t *testing.T) {
	y := make([]float64, 200)
	for i := range y {
		y[i] = 42
	}

	bl, err := ALS(y, DefaultALSParams())
	require.NoError(t, err)
	require.Len(t, bl, len(y))
	for i, v := range bl {
		assert.InDelta(t, 42, v, 1e-6, "index %d", i)
	}
}

func TestALS_LengthInvariant(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 4, 50, 1000} {
		y := noisySpectrum(n)
		bl, err := ALS(y, DefaultALSParams())
		require.NoError(t, err, "n=%d", n)
		assert.Len(t, bl, n)
	}
}

func TestALS_LambdaSmooths(t *testing.T) {
	y := noisySpectrum(500)

	var previous float64
	for i, lambda := range []float64{1e2, 1e4, 1e6} {
		params := DefaultALSParams()
		params.Lambda = lambda
		bl, err := ALS(y, params)
		require.NoError(t, err)

		c := curvature(bl)
		if i > 0 {
			assert.Less(t, c, previous, "lambda %g should be smoother", lambda)
		}
		previous = c
	}
}

func TestALS_HugsLowerEnvelope(t *testing.T) {
	y := noisySpectrum(400)
	bl, err := ALS(y, DefaultALSParams())
	require.NoError(t, err)

	// The band maximum sits far above the baseline.
	assert.Greater(t, y[400/3]-bl[400/3], 150.0)

	below := 0
	for i := range y {
		if bl[i] <= y[i]+5 {
			below++
		}
	}
	assert.Greater(t, below, 380)
}

func TestALS_InvalidParams(t *testing.T) {
	y := noisySpectrum(20)
	tests := []struct {
		name   string
		params ALSParams
	}{
		{"zero lambda", ALSParams{Lambda: 0, P: 0.01, Iterations: 10}},
		{"negative lambda", ALSParams{Lambda: -1, P: 0.01, Iterations: 10}},
		{"zero iterations", ALSParams{Lambda: 1e5, P: 0.01, Iterations: 0}},
		{"negative iterations", ALSParams{Lambda: 1e5, P: 0.01, Iterations: -3}},
		{"asymmetry out of range", ALSParams{Lambda: 1e5, P: 1.5, Iterations: 10}},
		{"NaN lambda", ALSParams{Lambda: math.NaN(), P: 0.01, Iterations: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ALS(y, tt.params)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestSecondDifferencePenalty(t *testing.T) {
	// DᵀD for n=5: diagonal 1 5 6 5 1, first off-diagonal -2 -4 -4 -2, second 1 1 1.
	data := secondDifferencePenalty(5, 1)
	want := []float64{
		1, -2, 1,
		5, -4, 1,
		6, -4, 1,
		5, -2, 0,
		1, 0, 0,
	}
	assert.Equal(t, want, data)
}

func TestLinear(t *testing.T) {
	assert.Equal(t, []float64{0, 2.5, 5, 7.5, 10}, Linear([]float64{0, 100, -4, 3, 10}))
	assert.Equal(t, []float64{7}, Linear([]float64{7}))
	assert.Empty(t, Linear(nil))
}

func TestPolynomial(t *testing.T) {
	t.Run("recovers exact quadratic", func(t *testing.T) {
		y := make([]float64, 30)
		for i := range y {
			x := float64(i)
			y[i] = 3 - 0.5*x + 0.02*x*x
		}
		bl, err := Polynomial(y)
		require.NoError(t, err)
		for i := range y {
			assert.InDelta(t, y[i], bl[i], 1e-8)
		}
	})

	t.Run("short inputs", func(t *testing.T) {
		bl, err := Polynomial([]float64{4})
		require.NoError(t, err)
		assert.Equal(t, []float64{4}, bl)

		bl, err = Polynomial([]float64{1, 3})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 3}, bl, 1e-9)
	})
}

func TestMovingAverage(t *testing.T) {
	t.Run("zero padded edges", func(t *testing.T) {
		// N=10 gives the minimum window of 5, centered with offset 2.
		y := []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}
		got := MovingAverage(y)
		want := []float64{3, 4, 5, 5, 5, 5, 5, 5, 4, 3}
		assert.InDeltaSlice(t, want, got, 1e-12)
	})

	t.Run("window grows with length", func(t *testing.T) {
		y := make([]float64, 200) // window 10, offset 4
		for i := range y {
			y[i] = 1
		}
		got := MovingAverage(y)
		assert.InDelta(t, 0.5, got[0], 1e-12)   // samples 0..4 of a 10-wide window
		assert.InDelta(t, 1.0, got[100], 1e-12) // interior
		assert.InDelta(t, 0.6, got[199], 1e-12) // samples 194..199
	})

	t.Run("shorter than window keeps length", func(t *testing.T) {
		got := MovingAverage([]float64{10, 10, 10})
		assert.InDeltaSlice(t, []float64{6, 6, 6}, got, 1e-12)
	})
}

func TestEstimate(t *testing.T) {
	y := noisySpectrum(100)
	for _, m := range []Method{MethodALS, MethodLinear, MethodPolynomial, MethodMovingAverage} {
		t.Run(m.String(), func(t *testing.T) {
			params := DefaultParams()
			params.Method = m
			bl, err := Estimate(y, params)
			require.NoError(t, err)
			assert.Len(t, bl, len(y))
		})
	}

	_, err := Estimate(y, Params{Method: Method(42)})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestParseMethod(t *testing.T) {
	for input, want := range map[string]Method{
		"als":            MethodALS,
		"ALS":            MethodALS,
		"Moving Average": MethodMovingAverage,
		"moving-average": MethodMovingAverage,
		"polynomial":     MethodPolynomial,
		"linear":         MethodLinear,
	} {
		got, err := ParseMethod(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseMethod("spline")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCorrectAndClip(t *testing.T) {
	y := []float64{1, 5, 2}
	corrected, bl, err := Correct(y, Params{Method: MethodLinear})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1.5, 2}, bl)
	assert.Equal(t, []float64{0, 3.5, 0}, corrected)

	assert.Equal(t, []float64{0, 2, 0}, ClipNegative([]float64{-1, 2, 0}))
	assert.Equal(t, []float64{-1, 2}, Subtract([]float64{0, 3}, []float64{1, 1}), "Subtract keeps negatives")
}
