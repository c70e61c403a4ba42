package main

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/filter"
)

func TestSynthesize_ElementsFilterable(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	required := filter.Criteria{RequiredElements: []string{"Si"}}.Normalize()

	var passed []string
	for m := range mineralsFromSlice(minerals) {
		entry := synthesize(m, rng)
		if filter.Passes(entry, &required) {
			passed = append(passed, entry.Metadata[core.MetaMineralName])
		}
	}
	assert.Equal(t, []string{"Quartz"}, passed)

	gypsum := synthesize(minerals[3], rng)
	assert.Equal(t, []string{"CA", "H", "O", "S"}, filter.Elements(gypsum.Metadata))
}

func TestSynthesize_Shape(t *testing.T) {
	entry := synthesize(minerals[8], rand.New(rand.NewPCG(1, 2)))

	require.Len(t, entry.Intensities, len(entry.Wavenumbers))
	assert.Equal(t, 100.0, entry.Wavenumbers[0])
	assert.Equal(t, 1800.0, entry.Wavenumbers[len(entry.Wavenumbers)-1])

	peak := slices.Index(entry.Intensities, slices.Max(entry.Intensities))
	assert.InDelta(t, 1332, entry.Wavenumbers[peak], 4)
}

func TestMineralsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.txt")
	data := "Quartz 128 206 464\nBroken 12 abc\nLonely\nDiamond 1332\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	source, err := mineralsFromFile(path)
	require.NoError(t, err)

	var names []string
	for m := range source {
		names = append(names, m.name)
	}
	assert.Equal(t, []string{"Quartz", "Diamond"}, names)
}

func TestMineralsFromFile_Missing(t *testing.T) {
	_, err := mineralsFromFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
