package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/ramanid/core"
)

func entryWithPeaks(name string, peaks ...float64) *core.DatabaseEntry {
	return &core.DatabaseEntry{
		Name:        name,
		Wavenumbers: []float64{100, 200, 300},
		Intensities: []float64{1, 2, 3},
		Peaks:       core.WavenumberPeaks(peaks),
	}
}

func TestPasses_PeakTolerance(t *testing.T) {
	c := Criteria{PeakPositions: []float64{1000}, Tolerance: 5}.Normalize()

	assert.True(t, Passes(entryWithPeaks("near", 1002), &c))
	assert.False(t, Passes(entryWithPeaks("far", 1010), &c))
	assert.True(t, Passes(entryWithPeaks("several", 450, 1004.9), &c))
}

func TestPasses_AllPositionsRequired(t *testing.T) {
	c := Criteria{PeakPositions: []float64{464, 206}}.Normalize()

	assert.True(t, Passes(entryWithPeaks("quartz", 128, 206, 464), &c))
	assert.False(t, Passes(entryWithPeaks("partial", 128, 464), &c))
}

func TestPasses_EmptyPeakDataFails(t *testing.T) {
	c := Criteria{PeakPositions: []float64{1000}, Tolerance: 1e6}.Normalize()

	assert.False(t, Passes(entryWithPeaks("none"), &c))
	assert.False(t, Passes(&core.DatabaseEntry{Name: "zero"}, &c))
}

func TestPasses_LegacyIndices(t *testing.T) {
	entry := &core.DatabaseEntry{
		Name:        "legacy",
		Wavenumbers: []float64{990, 1000, 1010},
		Intensities: []float64{1, 5, 1},
		Peaks:       core.IndexPeaks([]int{1, 7}),
	}
	c := Criteria{PeakPositions: []float64{1001}, Tolerance: 2}.Normalize()
	assert.True(t, Passes(entry, &c), "index 1 resolves to 1000; index 7 is skipped")

	c = Criteria{PeakPositions: []float64{1010}, Tolerance: 2}.Normalize()
	assert.False(t, Passes(entry, &c))
}

func TestPasses_TextCriteria(t *testing.T) {
	entry := &core.DatabaseEntry{
		Name: "calcite",
		Metadata: map[string]string{
			"Chemical Family":    "Carbonates",
			"HEY_CLASSIFICATION": "Carbonates - Calcite Group",
		},
	}

	tests := []struct {
		name string
		c    Criteria
		want bool
	}{
		{"family title-case key", Criteria{ChemicalFamily: "carbon"}, true},
		{"hey underscore key", Criteria{HeyClassification: "CALCITE"}, true},
		{"both", Criteria{ChemicalFamily: "Carbonates", HeyClassification: "group"}, true},
		{"family mismatch", Criteria{ChemicalFamily: "Silicates"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.c.Normalize()
			assert.Equal(t, tt.want, Passes(entry, &c))
		})
	}

	c := Criteria{ChemicalFamily: "carb"}.Normalize()
	assert.False(t, Passes(&core.DatabaseEntry{Name: "bare"}, &c))
}

func TestPasses_Elements(t *testing.T) {
	quartz := &core.DatabaseEntry{Name: "quartz", Metadata: map[string]string{"CHEMISTRY ELEMENTS": "Si, O"}}
	calcite := &core.DatabaseEntry{Name: "calcite", Metadata: map[string]string{"FORMULA": "CaCO3"}}
	unknown := &core.DatabaseEntry{Name: "unknown"}

	tests := []struct {
		name  string
		c     Criteria
		entry *core.DatabaseEntry
		want  bool
	}{
		{"only subset", Criteria{OnlyElements: []string{"si", "o", "al"}}, quartz, true},
		{"only violated", Criteria{OnlyElements: []string{"Si"}}, quartz, false},
		{"required present", Criteria{RequiredElements: []string{"Ca"}}, calcite, true},
		{"required missing", Criteria{RequiredElements: []string{"Mg"}}, calcite, false},
		{"exclude hit", Criteria{ExcludeElements: []string{"C"}}, calcite, false},
		{"exclude miss", Criteria{ExcludeElements: []string{"Fe"}}, quartz, true},
		{"no element data", Criteria{ExcludeElements: []string{"Fe"}}, unknown, false},
		{"contradiction", Criteria{RequiredElements: []string{"Si"}, ExcludeElements: []string{"Si"}}, quartz, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.c.Normalize()
			assert.Equal(t, tt.want, Passes(tt.entry, &c))
		})
	}
}

func TestContradictoryElementsRejectEverything(t *testing.T) {
	c := Criteria{RequiredElements: []string{"Si"}, ExcludeElements: []string{"Si"}}
	entries := []*core.DatabaseEntry{
		{Name: "a", Metadata: map[string]string{"CHEMISTRY ELEMENTS": "Si,O"}},
		{Name: "b", Metadata: map[string]string{"FORMULA": "Mg2SiO4"}},
		{Name: "c", Metadata: map[string]string{"FORMULA": "NaCl"}},
	}
	assert.Empty(t, Apply(entries, c))
}

func TestCriteriaModes(t *testing.T) {
	assert.True(t, Criteria{}.IsEmpty())
	assert.False(t, Criteria{}.IsPeakOnly())

	peakOnly := Criteria{PeakPositions: []float64{464}}
	assert.True(t, peakOnly.IsPeakOnly())
	assert.False(t, peakOnly.IsEmpty())

	mixed := Criteria{PeakPositions: []float64{464}, ChemicalFamily: "Silicates"}
	assert.False(t, mixed.IsPeakOnly())

	assert.Equal(t, DefaultTolerance, Criteria{}.Normalize().Tolerance)
}

func TestElements(t *testing.T) {
	assert.Equal(t, []string{"C", "CA", "O"}, Elements(map[string]string{"Formula": "CaCO3"}))
	assert.Equal(t, []string{"O", "SI"}, Elements(map[string]string{"Chemistry_Elements": " si , O,"}))
	assert.Nil(t, Elements(nil))
}

func TestKeyVariants(t *testing.T) {
	assert.Equal(t,
		[]string{"CHEMICAL FAMILY", "Chemical Family", "CHEMICAL_FAMILY", "Chemical_Family"},
		KeyVariants(core.MetaChemicalFamily))
	assert.Equal(t, []string{"FORMULA", "Formula"}, KeyVariants("formula"))
}
