package ingestion

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/storage"
	"github.com/poiesic/ramanid/storage/badger"
	"github.com/poiesic/ramanid/taxonomy"
)

func setupTestRepositories(t *testing.T) (storage.SpectrumRepository, *badger.CheckpointRepository) {
	t.Helper()
	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return badger.NewSpectrumRepository(backend), badger.NewCheckpointRepository(backend)
}

func testResolver(t *testing.T) *taxonomy.Resolver {
	t.Helper()
	r, err := taxonomy.NewResolver([]core.ClassificationRecord{
		{Name: "Quartz", HeyClassification: "Silicates - Tectosilicates", Extra: map[string]string{
			core.ClassElements: "Si, O",
		}},
		{Name: "Calcite", HeyClassification: "Carbonates - Calcite group"},
	})
	require.NoError(t, err)
	return r
}

// testEntry builds a 200 point spectrum with Gaussian bands on a slope.
func testEntry(name string, centers ...float64) *core.DatabaseEntry {
	const n = 200
	w := make([]float64, n)
	y := make([]float64, n)
	for i := range n {
		w[i] = 200 + float64(i)*8
		y[i] = 5 + 0.01*w[i]
		for _, c := range centers {
			d := w[i] - c
			y[i] += 100 * math.Exp(-d*d/(2*12*12))
		}
	}
	return &core.DatabaseEntry{Name: name, Wavenumbers: w, Intensities: y}
}

func TestNewPipeline_RequiresRepository(t *testing.T) {
	_, err := NewPipeline(nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestPipeline_Add_DetectsPeaks(t *testing.T) {
	repo, _ := setupTestRepositories(t)
	p, err := NewPipeline(repo, WithPoolSize(1))
	require.NoError(t, err)
	defer p.Release()

	ctx := context.Background()
	added, err := p.Add(ctx, testEntry("Mystery_1", 600, 1000, 1400))
	require.NoError(t, err)
	require.Len(t, added, 1)

	stored, err := repo.Get(ctx, "Mystery_1")
	require.NoError(t, err)
	require.Equal(t, core.PeakKindWavenumbers, stored.Peaks.Kind)
	positions := stored.PeakPositions()
	require.Len(t, positions, 3)
	for i, want := range []float64{600, 1000, 1400} {
		assert.InDelta(t, want, positions[i], 8)
	}
}

func TestPipeline_Add_CanonicalizesLegacyPeaks(t *testing.T) {
	repo, _ := setupTestRepositories(t)
	p, err := NewPipeline(repo)
	require.NoError(t, err)
	defer p.Release()

	entry := testEntry("Legacy", 600)
	entry.Peaks = core.IndexPeaks([]int{50, 500})
	entry.Metadata = map[string]string{"SOURCE": "old"}

	ctx := context.Background()
	_, err = p.Add(ctx, entry)
	require.NoError(t, err)

	stored, err := repo.Get(ctx, "Legacy")
	require.NoError(t, err)
	assert.Equal(t, core.WavenumberPeaks([]float64{600}), stored.Peaks)
	assert.Equal(t, core.PeakKindIndices, entry.Peaks.Kind, "caller's entry is not modified")
}

func TestPipeline_Add_DetectionDisabled(t *testing.T) {
	repo, _ := setupTestRepositories(t)
	p, err := NewPipeline(repo, WithDetection(DetectionConfig{Disabled: true}))
	require.NoError(t, err)
	defer p.Release()

	ctx := context.Background()
	_, err = p.Add(ctx, testEntry("Bare", 600))
	require.NoError(t, err)

	stored, err := repo.Get(ctx, "Bare")
	require.NoError(t, err)
	assert.True(t, stored.Peaks.IsEmpty())
}

func TestPipeline_Add_InvalidEntryStoresNothing(t *testing.T) {
	repo, _ := setupTestRepositories(t)
	p, err := NewPipeline(repo)
	require.NoError(t, err)
	defer p.Release()

	bad := testEntry("Bad")
	bad.Intensities = bad.Intensities[:10]

	ctx := context.Background()
	_, err = p.Add(ctx, testEntry("Good", 600), bad)
	assert.ErrorIs(t, err, core.ErrInvalidEntry)
	assert.ErrorIs(t, err, core.ErrLengthMismatch)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPipeline_Add_Classifies(t *testing.T) {
	repo, checkpoints := setupTestRepositories(t)
	p, err := NewPipeline(repo,
		WithResolver(testResolver(t)),
		WithCheckpoints(checkpoints),
		WithPoolSize(2),
	)
	require.NoError(t, err)
	defer p.Release()

	preset := testEntry("Calcite__R050048", 1085)
	preset.Metadata = map[string]string{"Hey Classification": "Carbonates - custom"}

	ctx := context.Background()
	_, err = p.Add(ctx,
		testEntry("Quartz__R040031__Raman", 465),
		preset,
		testEntry("Unobtainium_R999999", 700),
	)
	require.NoError(t, err)
	p.Wait()

	quartz, err := repo.Get(ctx, "Quartz__R040031__Raman")
	require.NoError(t, err)
	assert.Equal(t, "Silicates - Tectosilicates", quartz.Metadata[core.MetaHeyClassification])
	assert.Equal(t, "Silicates", quartz.Metadata[core.MetaChemicalFamily])
	assert.Equal(t, "Quartz", quartz.Metadata[core.MetaMineralName])
	assert.Equal(t, "Si, O", quartz.Metadata["CHEMISTRY ELEMENTS"])

	calcite, err := repo.Get(ctx, "Calcite__R050048")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Hey Classification": "Carbonates - custom"}, calcite.Metadata)

	unknown, err := repo.Get(ctx, "Unobtainium_R999999")
	require.NoError(t, err)
	assert.Empty(t, unknown.Metadata)

	cp, err := checkpoints.LoadCheckpoint(ctx, ClassifyProcessorType)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "Unobtainium_R999999", cp.LastName)
}

func TestEnrich(t *testing.T) {
	r := testResolver(t)

	entry := testEntry("Quartz_R040031")
	assert.Equal(t, Classified, Enrich(r, entry, false))
	assert.Equal(t, "Silicates - Tectosilicates", entry.Metadata[core.MetaHeyClassification])

	entry.Metadata[core.MetaHeyClassification] = "edited"
	assert.Equal(t, AlreadyClassified, Enrich(r, entry, false))
	assert.Equal(t, "edited", entry.Metadata[core.MetaHeyClassification])

	assert.Equal(t, Classified, Enrich(r, entry, true))
	assert.Equal(t, "Silicates - Tectosilicates", entry.Metadata[core.MetaHeyClassification])

	assert.Equal(t, Unresolved, Enrich(r, testEntry("Nothing_R1"), false))
	assert.Equal(t, "already classified", AlreadyClassified.String())
}

func TestClassifyProcessor_SkipsRemovedEntries(t *testing.T) {
	repo, _ := setupTestRepositories(t)
	proc, err := newClassifyProcessor(repo, nil, testResolver(t), nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = repo.Put(ctx, testEntry("Quartz_R1", 465))
	require.NoError(t, err)

	require.NoError(t, proc.process(ctx, proc.enqueue(), "Quartz_R1", "Gone_R2"))
	assert.Equal(t, "Quartz_R1", proc.lastName)
	require.NoError(t, proc.checkpoint(ctx), "no checkpoint repository is a no-op")

	stored, err := repo.Get(ctx, "Quartz_R1")
	require.NoError(t, err)
	assert.Equal(t, "Quartz", stored.Metadata[core.MetaMineralName])
}

func TestPipeline_Add_Concurrent(t *testing.T) {
	repo, checkpoints := setupTestRepositories(t)
	p, err := NewPipeline(repo,
		WithResolver(testResolver(t)),
		WithCheckpoints(checkpoints),
		WithPoolSize(4),
	)
	require.NoError(t, err)
	defer p.Release()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Add(ctx, testEntry(fmt.Sprintf("Quartz_R%03d", i), 465))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	p.Wait()

	for i := range 8 {
		entry, err := repo.Get(ctx, fmt.Sprintf("Quartz_R%03d", i))
		require.NoError(t, err)
		assert.Equal(t, "Silicates - Tectosilicates", entry.Metadata[core.MetaHeyClassification], entry.Name)
	}

	cp, err := checkpoints.LoadCheckpoint(ctx, ClassifyProcessorType)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "Quartz_R007", cp.LastName)
}

func TestClassifyProcessor_CheckpointWaitsForEarlierJobs(t *testing.T) {
	repo, checkpoints := setupTestRepositories(t)
	proc, err := newClassifyProcessor(repo, checkpoints, testResolver(t), nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, second := proc.enqueue(), proc.enqueue()
	proc.finish(second, "Zircon_R1")
	require.NoError(t, proc.checkpoint(ctx))
	cp, err := checkpoints.LoadCheckpoint(ctx, ClassifyProcessorType)
	require.NoError(t, err)
	assert.Nil(t, cp, "job one is still pending")

	proc.finish(first, "Albite_R1")
	require.NoError(t, proc.checkpoint(ctx))
	cp, err = checkpoints.LoadCheckpoint(ctx, ClassifyProcessorType)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "Zircon_R1", cp.LastName)

	third := proc.enqueue()
	proc.finish(third, "")
	require.NoError(t, proc.checkpoint(ctx))
	cp, err = checkpoints.LoadCheckpoint(ctx, ClassifyProcessorType)
	require.NoError(t, err)
	assert.Equal(t, "Zircon_R1", cp.LastName, "a failed job does not move the checkpoint")
}

func TestNewClassifyProcessor_Requirements(t *testing.T) {
	repo, _ := setupTestRepositories(t)

	_, err := newClassifyProcessor(nil, nil, testResolver(t), nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = newClassifyProcessor(repo, nil, nil, nil)
	assert.ErrorIs(t, err, ErrResolverRequired)
}

func TestDetectPeaks_UnsortedInput(t *testing.T) {
	entry := testEntry("Reversed", 800)
	for i, j := 0, len(entry.Wavenumbers)-1; i < j; i, j = i+1, j-1 {
		entry.Wavenumbers[i], entry.Wavenumbers[j] = entry.Wavenumbers[j], entry.Wavenumbers[i]
		entry.Intensities[i], entry.Intensities[j] = entry.Intensities[j], entry.Intensities[i]
	}

	found, err := DetectPeaks(entry, DefaultDetectionConfig())
	require.NoError(t, err)
	require.Len(t, found.Wavenumbers, 1)
	assert.InDelta(t, 800, found.Wavenumbers[0], 8)
}
