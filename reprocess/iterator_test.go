package reprocess

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/storage"
	"github.com/poiesic/ramanid/storage/badger"
)

func setupTestDB(t *testing.T) (storage.SpectrumRepository, *badger.CheckpointRepository) {
	t.Helper()
	backend, err := badger.OpenBackend("", true) // in-memory
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return badger.NewSpectrumRepository(backend), badger.NewCheckpointRepository(backend)
}

func seed(t *testing.T, repo storage.SpectrumRepository, entries ...*core.DatabaseEntry) {
	t.Helper()
	_, err := repo.Put(context.Background(), entries...)
	require.NoError(t, err)
}

func namedEntries(n int) []*core.DatabaseEntry {
	entries := make([]*core.DatabaseEntry, n)
	for i := range entries {
		entries[i] = testEntry(fmt.Sprintf("entry-%02d", i))
	}
	return entries
}

func TestEntryIterator_Batches(t *testing.T) {
	repo, _ := setupTestDB(t)
	seed(t, repo, namedEntries(5)...)

	var sizes []int
	var names []string
	err := NewEntryIterator(repo, 2).ForEach(context.Background(), "", func(batch []*core.DatabaseEntry) error {
		sizes = append(sizes, len(batch))
		for _, e := range batch {
			names = append(names, e.Name)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, []string{"entry-00", "entry-01", "entry-02", "entry-03", "entry-04"}, names)
}

func TestEntryIterator_ExactMultiple(t *testing.T) {
	repo, _ := setupTestDB(t)
	seed(t, repo, namedEntries(4)...)

	batches := 0
	err := NewEntryIterator(repo, 2).ForEach(context.Background(), "", func(batch []*core.DatabaseEntry) error {
		batches++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, batches)
}

func TestEntryIterator_After(t *testing.T) {
	repo, _ := setupTestDB(t)
	seed(t, repo, namedEntries(5)...)

	var names []string
	err := NewEntryIterator(repo, 10).ForEach(context.Background(), "entry-02", func(batch []*core.DatabaseEntry) error {
		for _, e := range batch {
			names = append(names, e.Name)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"entry-03", "entry-04"}, names)
}

func TestEntryIterator_Empty(t *testing.T) {
	repo, _ := setupTestDB(t)

	called := false
	err := NewEntryIterator(repo, 0).ForEach(context.Background(), "", func([]*core.DatabaseEntry) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestEntryIterator_StopsOnError(t *testing.T) {
	repo, _ := setupTestDB(t)
	seed(t, repo, namedEntries(5)...)

	boom := errors.New("boom")
	batches := 0
	err := NewEntryIterator(repo, 2).ForEach(context.Background(), "", func([]*core.DatabaseEntry) error {
		batches++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, batches)
}

func TestEntryIterator_ContextCanceled(t *testing.T) {
	repo, _ := setupTestDB(t)
	seed(t, repo, namedEntries(5)...)

	ctx, cancel := context.WithCancel(context.Background())
	batches := 0
	err := NewEntryIterator(repo, 2).ForEach(ctx, "", func([]*core.DatabaseEntry) error {
		batches++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, batches)
}
