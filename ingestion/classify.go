package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/filter"
	"github.com/poiesic/ramanid/storage"
	"github.com/poiesic/ramanid/taxonomy"
)

// ClassifyProcessorType identifies classification checkpoints.
const ClassifyProcessorType = "classify"

// Outcome is the result of enriching one entry.
type Outcome int

const (
	// Unresolved means no taxonomy record matched the entry name.
	Unresolved Outcome = iota
	// Classified means the entry metadata was updated.
	Classified
	// AlreadyClassified means the entry carried a Hey classification and was left alone.
	AlreadyClassified
)

func (o Outcome) String() string {
	switch o {
	case Unresolved:
		return "unresolved"
	case Classified:
		return "classified"
	case AlreadyClassified:
		return "already classified"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Enrich classifies entry by name and writes the classification into its
// metadata. Entries that already have a Hey classification, under any key
// spelling, are skipped unless overwrite is set.
func Enrich(resolver *taxonomy.Resolver, entry *core.DatabaseEntry, overwrite bool) Outcome {
	if !overwrite && filter.Lookup(entry.Metadata, core.MetaHeyClassification) != "" {
		return AlreadyClassified
	}
	match, ok := resolver.Classify(entry.Name)
	if !ok {
		return Unresolved
	}
	entry.Metadata = match.Apply(entry.Metadata)
	return Classified
}

// classifyProcessor resolves stored entries against the taxonomy.
type classifyProcessor struct {
	repository  storage.SpectrumRepository
	checkpoints storage.CheckpointRepository
	resolver    *taxonomy.Resolver
	logger      *slog.Logger

	// Jobs finish in any order. lastName only advances over the prefix of
	// jobs that have all finished, so a checkpoint never covers a job that
	// is still queued.
	mu        sync.Mutex
	nextSeq   uint64
	watermark uint64
	finished  map[uint64]string
	lastName  string
	savedName string
}

var _ processor = (*classifyProcessor)(nil)

func newClassifyProcessor(
	repository storage.SpectrumRepository,
	checkpoints storage.CheckpointRepository,
	resolver *taxonomy.Resolver,
	logger *slog.Logger,
) (*classifyProcessor, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &classifyProcessor{
		repository:  repository,
		checkpoints: checkpoints,
		resolver:    resolver,
		logger:      logger.With("processor", ClassifyProcessorType),
		finished:    make(map[uint64]string),
	}, nil
}

// enqueue reserves the sequence number of the next job.
func (cp *classifyProcessor) enqueue() uint64 {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.nextSeq++
	return cp.nextSeq
}

// finish records job seq as done. highest is the largest name the job
// classified, or "" when it failed.
func (cp *classifyProcessor) finish(seq uint64, highest string) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.finished[seq] = highest
	for {
		name, ok := cp.finished[cp.watermark+1]
		if !ok {
			return
		}
		delete(cp.finished, cp.watermark+1)
		cp.watermark++
		cp.lastName = max(cp.lastName, name)
	}
}

// process classifies the named entries and stores the changed ones. Each
// job reads and writes in one transaction so it cannot overwrite an entry
// re-added while it ran.
func (cp *classifyProcessor) process(ctx context.Context, seq uint64, names ...string) error {
	cp.logger.Info("classifying entries", "entries", len(names))

	names = slices.Clone(names)
	slices.Sort(names)

	counts := make(map[Outcome]int)
	err := cp.repository.WithTransaction(ctx, func(ctx context.Context) error {
		clear(counts)
		var changed []*core.DatabaseEntry
		for _, name := range names {
			entry, err := cp.repository.Get(ctx, name)
			if errors.Is(err, storage.ErrNotFound) {
				cp.logger.Debug("entry removed before classification", "name", name)
				continue
			}
			if err != nil {
				cp.logger.Error("error retrieving entry", "name", name, "err", err)
				return err
			}
			outcome := Enrich(cp.resolver, entry, false)
			counts[outcome]++
			if outcome == Classified {
				changed = append(changed, entry)
			}
		}
		if len(changed) == 0 {
			return nil
		}
		_, err := cp.repository.Put(ctx, changed...)
		return err
	})
	if err != nil {
		cp.finish(seq, "")
		return err
	}

	var highest string
	if len(names) > 0 {
		highest = names[len(names)-1]
	}
	cp.finish(seq, highest)
	cp.logger.Debug("classification finished",
		"classified", counts[Classified],
		"already", counts[AlreadyClassified],
		"unresolved", counts[Unresolved])
	return nil
}

// checkpoint records the highest name of the finished prefix of jobs when
// a checkpoint repository is configured.
func (cp *classifyProcessor) checkpoint(ctx context.Context) error {
	if cp.checkpoints == nil {
		return nil
	}
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.lastName == "" || cp.lastName == cp.savedName {
		return nil
	}
	err := cp.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: ClassifyProcessorType,
		LastName:      cp.lastName,
		UpdatedAt:     time.Now().UTC(),
	})
	if err == nil {
		cp.savedName = cp.lastName
	}
	return err
}
