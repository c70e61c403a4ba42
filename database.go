// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ramanid

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/filter"
	"github.com/poiesic/ramanid/ingestion"
	"github.com/poiesic/ramanid/reprocess"
	"github.com/poiesic/ramanid/search"
	"github.com/poiesic/ramanid/storage"
	"github.com/poiesic/ramanid/storage/badger"
	"github.com/poiesic/ramanid/taxonomy"
)

// ErrNoTaxonomy is returned when classification needs taxonomy records and
// none have been imported.
var ErrNoTaxonomy = errors.New("no taxonomy records imported")

// Database bundles a spectral library stored in BadgerDB with the
// repositories and services that operate on it.
type Database struct {
	backend        *badger.Backend
	spectrumRepo   storage.SpectrumRepository
	taxonomyRepo   storage.TaxonomyRepository
	checkpointRepo storage.CheckpointRepository
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	inMemory bool
	logger   *slog.Logger
}

// WithInMemory keeps the database in memory; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger used by the database and the services it creates.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewDatabase opens or creates the database at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory, badger.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}

	return &Database{
		backend:        backend,
		spectrumRepo:   badger.NewSpectrumRepository(backend),
		taxonomyRepo:   badger.NewTaxonomyRepository(backend),
		checkpointRepo: badger.NewCheckpointRepository(backend),
		logger:         options.logger,
	}, nil
}

// Close closes the repositories and the backend.
func (db *Database) Close() error {
	if err := db.taxonomyRepo.Close(); err != nil {
		db.logger.Error("error closing taxonomy repository", "err", err)
		return err
	}
	if err := db.spectrumRepo.Close(); err != nil {
		db.logger.Error("error closing spectrum repository", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) SpectrumRepository() storage.SpectrumRepository {
	return db.spectrumRepo
}

func (db *Database) TaxonomyRepository() storage.TaxonomyRepository {
	return db.taxonomyRepo
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

// ImportTaxonomy replaces the stored taxonomy with the records of a CSV
// table and returns how many were stored.
func (db *Database) ImportTaxonomy(ctx context.Context, r io.Reader) (int, error) {
	records, err := taxonomy.ReadCSV(r)
	if err != nil {
		return 0, err
	}
	ptrs := make([]*core.ClassificationRecord, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}

	err = db.taxonomyRepo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := db.taxonomyRepo.ClearRecords(ctx); err != nil {
			return err
		}
		return db.taxonomyRepo.PutRecords(ctx, ptrs...)
	})
	if err != nil {
		return 0, err
	}
	db.logger.Info("taxonomy imported", "records", len(records))
	return len(records), nil
}

// NewResolver builds a name resolver from the stored taxonomy.
// Returns ErrNoTaxonomy if no records have been imported.
func (db *Database) NewResolver(ctx context.Context, opts ...taxonomy.Option) (*taxonomy.Resolver, error) {
	records, err := db.taxonomyRepo.GetAllRecords(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoTaxonomy
	}
	return taxonomy.NewResolver(records, append([]taxonomy.Option{taxonomy.WithLogger(db.logger)}, opts...)...)
}

// NewIngestionPipeline creates a pipeline over the spectrum repository.
// Added entries are classified when taxonomy records are available.
func (db *Database) NewIngestionPipeline(ctx context.Context, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	defaults := []ingestion.Option{
		ingestion.WithLogger(db.logger),
		ingestion.WithCheckpoints(db.checkpointRepo),
	}
	resolver, err := db.NewResolver(ctx)
	switch {
	case err == nil:
		defaults = append(defaults, ingestion.WithResolver(resolver))
	case errors.Is(err, ErrNoTaxonomy):
		db.logger.Debug("ingesting without classification", "reason", err)
	default:
		return nil, err
	}
	return ingestion.NewPipeline(db.spectrumRepo, append(defaults, opts...)...)
}

// NewSearchEngine creates a search engine over the spectrum repository.
func (db *Database) NewSearchEngine(opts ...search.Option) (*search.Engine, error) {
	return search.NewEngine(db.spectrumRepo, append([]search.Option{search.WithLogger(db.logger)}, opts...)...)
}

// NewReprocessor creates a reprocessor over the whole library. The stored
// taxonomy is loaded when config enables classification.
func (db *Database) NewReprocessor(ctx context.Context, config *reprocess.Config, progress io.Writer) (*reprocess.Reprocessor, error) {
	if config == nil {
		config = reprocess.DefaultConfig()
	}
	var resolver *taxonomy.Resolver
	if config.Classify {
		var err error
		if resolver, err = db.NewResolver(ctx); err != nil {
			return nil, err
		}
	}
	return reprocess.NewReprocessor(db.spectrumRepo, db.checkpointRepo, resolver, config, progress, db.logger)
}

// Stats summarizes the library.
type Stats struct {
	Entries         int
	TaxonomyRecords int
	WithPeaks       int
	Classified      int
	Families        map[string]int // entries per chemical family
}

// Stats reads every entry and reports library totals.
func (db *Database) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Families: make(map[string]int)}
	err := db.spectrumRepo.WithTransaction(ctx, func(ctx context.Context) error {
		entries, err := db.spectrumRepo.GetAll(ctx)
		if err != nil {
			return err
		}
		stats.Entries = len(entries)
		for _, entry := range entries {
			if !entry.Peaks.IsEmpty() {
				stats.WithPeaks++
			}
			if filter.Lookup(entry.Metadata, core.MetaHeyClassification) != "" {
				stats.Classified++
			}
			if family := filter.Lookup(entry.Metadata, core.MetaChemicalFamily); family != "" {
				stats.Families[family]++
			}
		}
		stats.TaxonomyRecords, err = db.taxonomyRepo.CountRecords(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
