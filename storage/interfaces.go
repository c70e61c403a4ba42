package storage

import (
	"context"

	"github.com/poiesic/ramanid/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository. It does not close
	// the backend shared with other repositories.
	Close() error
}

// SpectrumRepository stores reference spectra keyed by entry name.
type SpectrumRepository interface {
	Repository

	// Put stores entries, replacing any entry with the same name.
	// Ids are derived from names. InsertedAt is kept from a replaced entry
	// and UpdatedAt is always refreshed. Every entry is validated before
	// anything is written.
	Put(ctx context.Context, entries ...*core.DatabaseEntry) ([]*core.DatabaseEntry, error)

	// Get retrieves a single entry by name.
	// Returns ErrNotFound if the entry doesn't exist.
	Get(ctx context.Context, name string) (*core.DatabaseEntry, error)

	// GetAll returns every entry ordered by name, read from one snapshot.
	GetAll(ctx context.Context) ([]*core.DatabaseEntry, error)

	// Scan returns up to limit entries whose names sort after the given
	// name, in name order. An empty after starts at the beginning.
	Scan(ctx context.Context, after string, limit int) ([]*core.DatabaseEntry, error)

	// Delete removes entries by name.
	// Returns ErrNotFound if any entry doesn't exist; nothing is removed then.
	Delete(ctx context.Context, names ...string) error

	// Names returns all entry names in order.
	Names(ctx context.Context) ([]string, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}

// TaxonomyRepository stores mineral classification records keyed by name.
type TaxonomyRepository interface {
	Repository

	// PutRecords stores records, replacing records with the same name.
	PutRecords(ctx context.Context, records ...*core.ClassificationRecord) error

	// GetAllRecords returns every record ordered by name.
	GetAllRecords(ctx context.Context) ([]core.ClassificationRecord, error)

	// CountRecords returns the number of stored records.
	CountRecords(ctx context.Context) (int, error)

	// ClearRecords removes every record.
	ClearRecords(ctx context.Context) error
}

// CheckpointRepository persists progress of bulk processors.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for a processor type, if any.
	DeleteCheckpoint(ctx context.Context, processorType string) error
}
