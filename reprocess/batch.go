package reprocess

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/ingestion"
	"github.com/poiesic/ramanid/storage"
	"github.com/poiesic/ramanid/taxonomy"
)

// Stats counts what a run did.
type Stats struct {
	Processed         int
	Updated           int
	Classified        int
	AlreadyClassified int
	Unresolved        int
	PeaksDetected     int
	Failed            int
}

func (s *Stats) add(o Stats) {
	s.Processed += o.Processed
	s.Updated += o.Updated
	s.Classified += o.Classified
	s.AlreadyClassified += o.AlreadyClassified
	s.Unresolved += o.Unresolved
	s.PeaksDetected += o.PeaksDetected
	s.Failed += o.Failed
}

// BatchProcessor applies the configured tasks to batches of entries.
type BatchProcessor struct {
	repo           storage.SpectrumRepository
	resolver       *taxonomy.Resolver
	config         *Config
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewBatchProcessor creates a new batch processor. resolver may be nil when
// classification is disabled.
func NewBatchProcessor(repo storage.SpectrumRepository, resolver *taxonomy.Resolver, config *Config, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		repo:           repo,
		resolver:       resolver,
		config:         config,
		maxRetries:     config.MaxRetries,
		retryBaseDelay: config.RetryDelay,
		logger:         logger,
	}
}

// Process updates a batch of entries in memory and stores the changed ones.
// An entry whose peaks cannot be detected is counted as failed and skipped.
func (bp *BatchProcessor) Process(ctx context.Context, entries []*core.DatabaseEntry) (Stats, error) {
	var stats Stats
	changed := make([]*core.DatabaseEntry, 0, len(entries))

	for _, entry := range entries {
		stats.Processed++
		dirty := false

		if bp.config.DetectPeaks && (bp.config.RedetectAll || entry.Peaks.IsEmpty()) {
			detected, err := ingestion.DetectPeaks(entry, bp.config.Detection)
			if err != nil {
				bp.logger.Warn("skipping entry", "name", entry.Name, "err", err)
				stats.Failed++
				continue
			}
			entry.Peaks = detected
			stats.PeaksDetected++
			dirty = true
		} else if entry.Peaks.Kind == core.PeakKindIndices {
			entry.Peaks = entry.Peaks.Canonical(entry.Wavenumbers)
			dirty = true
		}

		if bp.config.Classify {
			switch ingestion.Enrich(bp.resolver, entry, bp.config.Overwrite) {
			case ingestion.Classified:
				stats.Classified++
				dirty = true
			case ingestion.AlreadyClassified:
				stats.AlreadyClassified++
			case ingestion.Unresolved:
				stats.Unresolved++
			}
		}

		if dirty {
			changed = append(changed, entry)
		}
	}

	if len(changed) == 0 {
		return stats, nil
	}

	err := RetryWithBackoff(ctx, func() error {
		_, err := bp.repo.Put(ctx, changed...)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return stats, fmt.Errorf("failed to store %d entries after %d attempts: %w", len(changed), bp.maxRetries, err)
	}
	stats.Updated = len(changed)
	return stats, nil
}
