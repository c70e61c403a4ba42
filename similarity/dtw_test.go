package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ramanid/core"
)

func TestDynamicAligner_Identical(t *testing.T) {
	x := []float64{0, 1, 2, 1, 0}
	got, err := DynamicAligner{}.Align(x, x)
	require.NoError(t, err)
	assert.Zero(t, got.Cost)
	assert.Equal(t, len(x), got.PathLength)
}

func TestDynamicAligner_Shifted(t *testing.T) {
	a := []float64{0, 0, 1, 2, 1, 0}
	b := []float64{0, 1, 2, 1, 0, 0}

	got, err := DynamicAligner{}.Align(a, b)
	require.NoError(t, err)
	assert.Zero(t, got.Cost, "warping absorbs a one-sample shift")
	assert.Greater(t, got.PathLength, len(a))
}

func TestDynamicAligner_DifferentLengths(t *testing.T) {
	a := []float64{0, 1, 2}
	b := []float64{0, 1, 1, 2, 2}

	got, err := DynamicAligner{Window: 1}.Align(a, b)
	require.NoError(t, err)
	assert.Zero(t, got.Cost)
	assert.Equal(t, 5, got.PathLength)
}

func TestDynamicAligner_Window(t *testing.T) {
	a := []float64{0, 0, 0, 5}
	b := []float64{5, 0, 0, 0}

	free, err := DynamicAligner{}.Align(a, b)
	require.NoError(t, err)
	banded, err := DynamicAligner{Window: 1}.Align(a, b)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, banded.Cost, free.Cost)
}

func TestDynamicAligner_Empty(t *testing.T) {
	_, err := DynamicAligner{}.Align(nil, []float64{1})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
