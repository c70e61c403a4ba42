package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/ramanid/baseline"
	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/storage"
	"github.com/poiesic/ramanid/taxonomy"
)

// Pipeline orchestrates adding reference spectra to a repository.
// Classification against the taxonomy runs asynchronously when a resolver
// is configured.
type Pipeline struct {
	repository   storage.SpectrumRepository
	checkpoints  storage.CheckpointRepository
	resolver     *taxonomy.Resolver
	detection    DetectionConfig
	classifyPool *ants.Pool
	classifyProc processor
	pending      sync.WaitGroup
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for classification.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.classifyPool != nil {
			p.classifyPool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.classifyPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithResolver enables classification of added entries.
func WithResolver(resolver *taxonomy.Resolver) Option {
	return func(p *Pipeline) error {
		p.resolver = resolver
		return nil
	}
}

// WithCheckpoints records classification progress in repository.
func WithCheckpoints(repository storage.CheckpointRepository) Option {
	return func(p *Pipeline) error {
		p.checkpoints = repository
		return nil
	}
}

// WithDetection sets how peaks are detected for entries added without them.
// Default is DefaultDetectionConfig().
func WithDetection(cfg DetectionConfig) Option {
	return func(p *Pipeline) error {
		if !cfg.Disabled && cfg.Baseline.Method == baseline.MethodALS {
			if err := cfg.Baseline.ALS.Validate(); err != nil {
				return err
			}
		}
		p.detection = cfg
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.SpectrumRepository, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository:   repository,
		detection:    DefaultDetectionConfig(),
		classifyPool: pool,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Processors are created after options so they get the final config.
	if p.resolver != nil {
		proc, err := newClassifyProcessor(repository, p.checkpoints, p.resolver, p.logger)
		if err != nil {
			p.Release()
			return nil, err
		}
		p.classifyProc = proc
	}
	return p, nil
}

// Add prepares and stores entries, replacing same-named entries, then
// submits them for classification. All entries are validated before any
// is stored. Classification errors are logged and do not fail Add.
func (p *Pipeline) Add(ctx context.Context, entries ...*core.DatabaseEntry) ([]*core.DatabaseEntry, error) {
	prepared := make([]*core.DatabaseEntry, len(entries))
	for i, entry := range entries {
		out, err := Prepare(entry, p.detection)
		if err != nil {
			return nil, err
		}
		prepared[i] = out
	}

	added, err := p.repository.Put(ctx, prepared...)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("entries stored", "entries", len(added))

	if len(added) == 0 || p.classifyProc == nil {
		return added, nil
	}

	names := make([]string, len(added))
	for i, entry := range added {
		names[i] = entry.Name
	}

	seq := p.classifyProc.enqueue()
	p.pending.Add(1)
	err = p.classifyPool.Submit(func() {
		defer p.pending.Done()
		if err := p.classifyProc.process(context.Background(), seq, names...); err != nil {
			p.logger.Error("error classifying entries", "err", err)
		}
		// A failed job can still release finished jobs queued behind it.
		if err := p.classifyProc.checkpoint(context.Background()); err != nil {
			p.logger.Error("error saving classification checkpoint", "err", err)
		}
	})
	if err != nil {
		p.classifyProc.finish(seq, "")
		p.pending.Done()
		p.logger.Error("error submitting entries for classification", "err", err)
	}
	return added, nil
}

// Wait blocks until every submitted classification has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release waits for pending classification and releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.Wait()
	if p.classifyPool != nil {
		p.classifyPool.Release()
	}
}
