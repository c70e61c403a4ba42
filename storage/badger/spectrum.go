package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/storage"
)

// SpectrumRepository implements storage.SpectrumRepository for BadgerDB.
type SpectrumRepository struct {
	backend *Backend
}

var _ storage.SpectrumRepository = (*SpectrumRepository)(nil)

// NewSpectrumRepository creates a new SpectrumRepository.
func NewSpectrumRepository(backend *Backend) *SpectrumRepository {
	return &SpectrumRepository{backend: backend}
}

// Close is a no-op; the backend is closed by its owner.
func (r *SpectrumRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *SpectrumRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Put stores entries, replacing entries with the same name.
func (r *SpectrumRepository) Put(ctx context.Context, entries ...*core.DatabaseEntry) ([]*core.DatabaseEntry, error) {
	for _, entry := range entries {
		if err := core.ValidateEntry(entry); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		// Stored timestamps have microsecond precision.
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, entry := range entries {
			key := makeSpectrumKey(entry.Name)
			old, err := readEntry(tx, key)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}

			entry.Id = core.IDFromContent(entry.Name)
			entry.InsertedAt = now
			if old != nil && !old.InsertedAt.IsZero() {
				entry.InsertedAt = old.InsertedAt
			}
			entry.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalEntry(entry)); err != nil {
				return fmt.Errorf("storing %q: %w", entry.Name, err)
			}
		}
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Get retrieves a single entry by name.
func (r *SpectrumRepository) Get(ctx context.Context, name string) (*core.DatabaseEntry, error) {
	var entry *core.DatabaseEntry
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		entry, err = readEntry(tx, makeSpectrumKey(name))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetAll returns every entry ordered by name.
func (r *SpectrumRepository) GetAll(ctx context.Context) ([]*core.DatabaseEntry, error) {
	var entries []*core.DatabaseEntry
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return iteratePrefix(tx, []byte(spectrumPrefix), nil, false, func(item *badger.Item) (bool, error) {
			entry, err := decodeEntry(item)
			if err != nil {
				return false, err
			}
			entries = append(entries, entry)
			return true, nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Scan returns up to limit entries with names after the given name.
func (r *SpectrumRepository) Scan(ctx context.Context, after string, limit int) ([]*core.DatabaseEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}
	var from []byte
	if after != "" {
		from = makeSpectrumKey(after)
	}

	entries := make([]*core.DatabaseEntry, 0, limit)
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return iteratePrefix(tx, []byte(spectrumPrefix), from, false, func(item *badger.Item) (bool, error) {
			if from != nil && bytes.Equal(item.Key(), from) {
				return true, nil
			}
			entry, err := decodeEntry(item)
			if err != nil {
				return false, err
			}
			entries = append(entries, entry)
			return len(entries) < limit, nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes entries by name.
func (r *SpectrumRepository) Delete(ctx context.Context, names ...string) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, name := range names {
			if _, err := tx.Get(makeSpectrumKey(name)); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: %q", storage.ErrNotFound, name)
				}
				return err
			}
		}
		for _, name := range names {
			if err := tx.Delete(makeSpectrumKey(name)); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// Names returns all entry names in order.
func (r *SpectrumRepository) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return iteratePrefix(tx, []byte(spectrumPrefix), nil, true, func(item *badger.Item) (bool, error) {
			names = append(names, spectrumName(item.Key()))
			return true, nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Count returns the number of stored entries.
func (r *SpectrumRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return iteratePrefix(tx, []byte(spectrumPrefix), nil, true, func(*badger.Item) (bool, error) {
			count++
			return true, nil
		})
	}, false)
	return count, err
}

func readEntry(tx *badger.Txn, key []byte) (*core.DatabaseEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %q", storage.ErrNotFound, spectrumName(key))
		}
		return nil, err
	}
	return decodeEntry(item)
}

func decodeEntry(item *badger.Item) (*core.DatabaseEntry, error) {
	var entry *core.DatabaseEntry
	err := item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalEntry(val)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", spectrumName(item.Key()), err)
	}
	return entry, nil
}
