package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ramanid/core"
)

func TestInterpolate(t *testing.T) {
	s := &core.Spectrum{Wavenumbers: []float64{100, 200, 300}, Intensities: []float64{0, 10, 0}}

	got, err := interpolate(s, []float64{100, 150, 200, 250})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 5, 10, 5}, got, 1e-9)
}

func TestInterpolate_TooFewPoints(t *testing.T) {
	s := &core.Spectrum{Wavenumbers: []float64{100}, Intensities: []float64{1}}

	_, err := interpolate(s, []float64{100})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestResample_PropagatesFitError(t *testing.T) {
	good := &core.Spectrum{Wavenumbers: []float64{100, 200}, Intensities: []float64{1, 2}}
	short := &core.Spectrum{Wavenumbers: []float64{150}, Intensities: []float64{1}}

	_, err := resample(good, short, 100, 200, 3)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	r, err := resample(good, good, 100, 200, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 150, 200}, r.grid)
	assert.InDeltaSlice(t, []float64{1, 1.5, 2}, r.b, 1e-9)
}
