package storage

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ramanid/core"
)

func sampleEntry(n int) *core.DatabaseEntry {
	now := time.Now().UTC().Truncate(time.Microsecond)
	e := &core.DatabaseEntry{
		Id:          core.IDFromContent("Calcite_R040070"),
		Name:        "Calcite_R040070",
		Wavenumbers: make([]float64, n),
		Intensities: make([]float64, n),
		Metadata:    map[string]string{core.MetaFormula: "CaCO3"},
		Peaks:       core.WavenumberPeaks([]float64{281.5, 1086.2}),
		InsertedAt:  now,
		UpdatedAt:   now,
	}
	for i := range n {
		e.Wavenumbers[i] = 100 + float64(i)
		e.Intensities[i] = math.Exp(-math.Pow(float64(i)-float64(n)/2, 2) / 50)
	}
	return e
}

func TestMarshalUnmarshalEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry *core.DatabaseEntry
	}{
		{"single point", sampleEntry(1)},
		{"typical spectrum", sampleEntry(1500)},
		{"legacy indices", func() *core.DatabaseEntry {
			e := sampleEntry(20)
			e.Peaks = core.IndexPeaks([]int{3, 9})
			e.Metadata = nil
			return e
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalEntry(tt.entry)
			decoded, err := UnmarshalEntry(data)
			require.NoError(t, err)
			assert.Equal(t, tt.entry, decoded)
		})
	}
}

func TestMarshalEntry_Compresses(t *testing.T) {
	e := sampleEntry(2000)
	for i := range e.Intensities {
		e.Intensities[i] = 0
	}
	raw := 1 + core.DatabaseEntryMUS.Size(*e)

	data := MarshalEntry(e)
	assert.Equal(t, encodingZstd, data[0])
	assert.Less(t, len(data), raw)
}

func TestUnmarshalEntry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"unknown encoding", []byte{9, 1, 2}},
		{"truncated raw", []byte{encodingRaw, 0x02}},
		{"bad zstd", []byte{encodingZstd, 1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalEntry(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestMarshalUnmarshalClassification(t *testing.T) {
	rec := &core.ClassificationRecord{
		Name:              "Quartz",
		HeyClassification: "Silicates - Tectosilicates",
		Extra:             map[string]string{core.ClassCrystalSystem: "trigonal"},
	}
	decoded, err := UnmarshalClassification(MarshalClassification(rec))
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)

	_, err = UnmarshalClassification(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalCheckpoint(t *testing.T) {
	cp := &core.Checkpoint{
		ProcessorType: "peaks",
		LastName:      "Quartz_R040031",
		UpdatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	decoded, err := UnmarshalCheckpoint(MarshalCheckpoint(cp))
	require.NoError(t, err)
	assert.Equal(t, cp, decoded)
}
