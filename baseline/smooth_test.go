package baseline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ramanid/core"
)

func TestSmooth_PreservesPolynomial(t *testing.T) {
	// A cubic is reproduced exactly by a cubic Savitzky-Golay filter,
	// including the polynomial-fitted edges.
	y := make([]float64, 40)
	for i := range y {
		x := float64(i)
		y[i] = 1 + 0.3*x - 0.05*x*x + 0.001*x*x*x
	}

	got, err := Smooth(y, SmoothParams{Window: 9, Order: 3})
	require.NoError(t, err)
	assert.InDeltaSlice(t, y, got, 1e-7)
}

func TestSmooth_ReducesNoise(t *testing.T) {
	y := make([]float64, 200)
	for i := range y {
		y[i] = 10 + math.Sin(float64(i)*2.9)
	}
	got, err := Smooth(y, SmoothParams{Window: 21, Order: 2})
	require.NoError(t, err)
	assert.Less(t, curvature(got), curvature(y)/10)
}

func TestSmoothParams_Normalize(t *testing.T) {
	p, err := SmoothParams{Window: 10, Order: 3}.Normalize(100)
	require.NoError(t, err)
	assert.Equal(t, 11, p.Window, "even window becomes odd")

	_, err = SmoothParams{Window: 3, Order: 3}.Normalize(100)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	p, err = SmoothParams{Window: 4, Order: 4}.Normalize(100)
	require.NoError(t, err, "window is checked after rounding up to 5")
	assert.Equal(t, 5, p.Window)

	_, err = SmoothParams{Window: 4, Order: 5}.Normalize(100)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = SmoothParams{Window: 11, Order: 2}.Normalize(5)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
