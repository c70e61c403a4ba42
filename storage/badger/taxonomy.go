package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/storage"
)

// TaxonomyRepository implements storage.TaxonomyRepository for BadgerDB.
type TaxonomyRepository struct {
	backend *Backend
}

var _ storage.TaxonomyRepository = (*TaxonomyRepository)(nil)

// NewTaxonomyRepository creates a new TaxonomyRepository.
func NewTaxonomyRepository(backend *Backend) *TaxonomyRepository {
	return &TaxonomyRepository{backend: backend}
}

// Close is a no-op; the backend is closed by its owner.
func (r *TaxonomyRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *TaxonomyRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutRecords stores records, replacing records with the same name.
func (r *TaxonomyRepository) PutRecords(ctx context.Context, records ...*core.ClassificationRecord) error {
	for _, rec := range records {
		if err := core.ValidateClassification(rec); err != nil {
			return err
		}
	}
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, rec := range records {
			if err := tx.Set(makeClassificationKey(rec.Name), storage.MarshalClassification(rec)); err != nil {
				return fmt.Errorf("storing classification %q: %w", rec.Name, err)
			}
		}
		return nil
	}, true)
}

// GetAllRecords returns every record ordered by name.
func (r *TaxonomyRepository) GetAllRecords(ctx context.Context) ([]core.ClassificationRecord, error) {
	var records []core.ClassificationRecord
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return iteratePrefix(tx, []byte(classificationPrefix), nil, false, func(item *badger.Item) (bool, error) {
			return true, item.Value(func(val []byte) error {
				rec, err := storage.UnmarshalClassification(val)
				if err != nil {
					return err
				}
				records = append(records, *rec)
				return nil
			})
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CountRecords returns the number of stored records.
func (r *TaxonomyRepository) CountRecords(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return iteratePrefix(tx, []byte(classificationPrefix), nil, true, func(*badger.Item) (bool, error) {
			count++
			return true, nil
		})
	}, false)
	return count, err
}

// ClearRecords removes every record.
func (r *TaxonomyRepository) ClearRecords(ctx context.Context) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var keys [][]byte
		err := iteratePrefix(tx, []byte(classificationPrefix), nil, true, func(item *badger.Item) (bool, error) {
			keys = append(keys, item.KeyCopy(nil))
			return true, nil
		})
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	}, true)
}
