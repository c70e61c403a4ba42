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

package reprocess

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/ingestion"
	"github.com/poiesic/ramanid/storage"
	"github.com/poiesic/ramanid/taxonomy"
)

// ProcessorType identifies reprocessing checkpoints.
const ProcessorType = "reprocess"

// Config holds configuration for a reprocessing run.
type Config struct {
	// BatchSize is the number of entries to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for storing a batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Classify resolves entry names against the taxonomy
	Classify bool

	// Overwrite replaces existing Hey classifications
	Overwrite bool

	// DetectPeaks detects peaks for entries stored without them
	DetectPeaks bool

	// RedetectAll replaces existing peaks as well
	RedetectAll bool

	// Detection controls baseline correction and peak thresholds
	Detection ingestion.DetectionConfig

	// Resume continues after the last saved checkpoint
	Resume bool
}

// DefaultConfig returns a Config with sensible defaults. Classification
// and missing peak detection are enabled.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     100 * time.Millisecond,
		Classify:       true,
		DetectPeaks:    true,
		Detection:      ingestion.DefaultDetectionConfig(),
	}
}

// Reprocessor orchestrates a pass over every entry in a database.
type Reprocessor struct {
	repo        storage.SpectrumRepository
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *EntryIterator
	logger      *slog.Logger
}

// NewReprocessor creates a new reprocessor. checkpoints may be nil, in which
// case runs cannot be resumed. resolver is required when classification is
// enabled. progress receives human readable progress output.
func NewReprocessor(
	repo storage.SpectrumRepository,
	checkpoints storage.CheckpointRepository,
	resolver *taxonomy.Resolver,
	config *Config,
	progress io.Writer,
	logger *slog.Logger,
) (*Reprocessor, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if !config.Classify && !config.DetectPeaks {
		return nil, ErrNoTasks
	}
	if config.Classify && resolver == nil {
		return nil, ErrResolverRequired
	}
	if config.MaxRetries <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if progress == nil {
		progress = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", ProcessorType)

	return &Reprocessor{
		repo:        repo,
		checkpoints: checkpoints,
		config:      config,
		progress:    progress,
		processor:   NewBatchProcessor(repo, resolver, config, logger),
		iterator:    NewEntryIterator(repo, config.BatchSize),
		logger:      logger,
	}, nil
}

// Run processes every entry, or with Config.Resume every entry after the
// last checkpoint. A checkpoint is saved after each batch and reset once
// the run completes.
func (r *Reprocessor) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	after, err := r.resumePoint(ctx)
	if err != nil {
		return stats, err
	}

	names, err := r.repo.Names(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list entries: %w", err)
	}
	total := 0
	for _, name := range names {
		if name > after {
			total++
		}
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No entries to process\n")
		return stats, r.saveCheckpoint(ctx, "")
	}

	if after != "" {
		fmt.Fprintf(r.progress, "Resuming after %q: %d entries (batch size: %d)\n", after, total, r.iterator.batchSize)
	} else {
		fmt.Fprintf(r.progress, "Reprocessing %d entries (batch size: %d)\n", total, r.iterator.batchSize)
	}

	tally := newProgress(r.progress, total, r.config.ReportInterval)
	tally.begin()

	err = r.iterator.ForEach(ctx, after, func(entries []*core.DatabaseEntry) error {
		batchStats, err := r.processor.Process(ctx, entries)
		stats.add(batchStats)
		tally.record(batchStats)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		return r.saveCheckpoint(ctx, entries[len(entries)-1].Name)
	})
	if err != nil {
		return stats, err
	}

	_, elapsed := tally.done()
	if err := r.saveCheckpoint(ctx, ""); err != nil {
		return stats, err
	}

	fmt.Fprintf(r.progress, "Reprocessing complete. Processed %d entries in %v: %d updated, %d classified, %d unresolved, %d peak sets detected, %d failed\n",
		stats.Processed, elapsed.Round(time.Millisecond), stats.Updated, stats.Classified, stats.Unresolved, stats.PeaksDetected, stats.Failed)
	r.logger.Info("reprocessing complete", "processed", stats.Processed, "updated", stats.Updated, "failed", stats.Failed)
	return stats, nil
}

func (r *Reprocessor) resumePoint(ctx context.Context) (string, error) {
	if !r.config.Resume || r.checkpoints == nil {
		return "", nil
	}
	checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, ProcessorType)
	if err != nil {
		return "", fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if checkpoint == nil {
		return "", nil
	}
	return checkpoint.LastName, nil
}

// saveCheckpoint records lastName as the resume point. An empty name marks
// a completed run.
func (r *Reprocessor) saveCheckpoint(ctx context.Context, lastName string) error {
	if r.checkpoints == nil {
		return nil
	}
	err := r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: ProcessorType,
		LastName:      lastName,
		UpdatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
