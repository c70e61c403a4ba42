package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Quartz-type", "quartz"},
		{"quartz", "quartz"},
		{"  Calcite  Group ", "calcite"},
		{"Metacinnabar", "cinnabar"},
		{"Para", "para"},
		{"Mg-Calcite!", "mgcalcite"},
		{"Zircon 2", "zircon 2"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanName(tt.in))
		})
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Quartz_R040031", "quartz"},
		{"Calcite_532_oriented", "calcite"},
		{"Rutile_raman", "rutile"},
		{"Anatase (syn)", "anatase"},
		{"Gypsum (nat)", "gypsum"},
		{"Barite_powder", "barite"},
		{"Fluorite", "fluorite"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseName(tt.in))
		})
	}
}

func TestExtractMineralName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Quartz__R040031__Raman__532", "Quartz"},
		{"Quartz_R040031", "Quartz"},
		{"Calcite_sample_2", "Calcite"},
		{"Gypsum", "Gypsum"},
		{" Albite ", "Albite"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMineralName(tt.in))
		})
	}
}

func TestChemicalFamily(t *testing.T) {
	assert.Equal(t, "Silicates", ChemicalFamily("Silicates - Tectosilicates"))
	assert.Equal(t, "Carbonates", ChemicalFamily(" Carbonates  - Calcite group"))
	assert.Equal(t, "", ChemicalFamily("Elements"))
}
