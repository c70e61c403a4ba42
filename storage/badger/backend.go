package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/poiesic/ramanid/storage"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
//
// Badger transactions are snapshot isolated on their own; the RWMutex
// additionally keeps writers from committing while a reader iterates, so a
// reader never has to retry against a moving database.
type Backend struct {
	db     *badger.DB
	mu     sync.RWMutex
	logger *slog.Logger
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithLogger sets the logger used by the backend and by Badger itself.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) BackendOption {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist. With inMemory set the path is
// ignored and nothing touches disk.
func OpenBackend(filePath string, inMemory bool, opts ...BackendOption) (*Backend, error) {
	b := &Backend{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}

	var badgerOpts badger.Options
	if inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDir(filePath); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(filePath)
	}

	badgerOpts.Logger = &badgerLoggerAdapter{logger: b.logger.With("component", "badger")}
	// Entries are compressed by the storage codec.
	badgerOpts.Compression = options.None

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	b.db = db
	return b, nil
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			return err
		}
		info, err = os.Stat(path)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

type txKey struct{}

// WithTx executes fn within a BadgerDB transaction. If isWrite is true a
// read-write transaction is created and committed when fn succeeds.
// When ctx already carries a transaction started by WithTransaction, fn
// joins it instead and the outer call commits.
func (b *Backend) WithTx(ctx context.Context, fn func(tx *badger.Txn) error, isWrite bool) error {
	if tx, ok := ctx.Value(txKey{}).(*badger.Txn); ok {
		return fn(tx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if isWrite {
		b.mu.Lock()
		defer b.mu.Unlock()
	} else {
		b.mu.RLock()
		defer b.mu.RUnlock()
	}
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}

	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	if err := fn(tx); err != nil {
		return err
	}
	if isWrite {
		return tx.Commit()
	}
	return nil
}

// WithTransaction executes fn within a single read-write transaction.
// Repository calls made with the context passed to fn join it, so their
// writes commit or roll back together.
func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.WithTx(ctx, func(tx *badger.Txn) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}, true)
}

// iteratePrefix calls fn for every item under prefix in key order,
// starting at from when it is non-nil.
func iteratePrefix(tx *badger.Txn, prefix, from []byte, keysOnly bool, fn func(item *badger.Item) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = !keysOnly
	iter := tx.NewIterator(opts)
	defer iter.Close()

	if from == nil {
		from = prefix
	}
	for iter.Seek(from); iter.Valid(); iter.Next() {
		more, err := fn(iter.Item())
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}
