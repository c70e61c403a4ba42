package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/ramanid/baseline"
	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/filter"
	"github.com/poiesic/ramanid/peaks"
	"github.com/poiesic/ramanid/similarity"
	"github.com/poiesic/ramanid/storage"
)

// Engine searches a spectrum repository.
type Engine struct {
	repository storage.SpectrumRepository
	scorer     *similarity.Scorer
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithScorer sets the similarity scorer.
// Default is a scorer built with similarity.NewScorer().
func WithScorer(scorer *similarity.Scorer) Option {
	return func(e *Engine) error {
		if scorer != nil {
			e.scorer = scorer
		}
		return nil
	}
}

// WithPoolSize sets the number of candidates scored concurrently.
// Default is runtime.NumCPU().
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		size = max(size, 1)
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if e.pool != nil {
			e.pool.Release()
		}
		e.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a search engine over repository.
func NewEngine(repository storage.SpectrumRepository, opts ...Option) (*Engine, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	pool, err := ants.NewPool(runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	e := &Engine{
		repository: repository,
		pool:       pool,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.Release()
			return nil, err
		}
	}
	if e.scorer == nil {
		scorer, err := similarity.NewScorer(similarity.WithLogger(e.logger))
		if err != nil {
			e.Release()
			return nil, err
		}
		e.scorer = scorer
	}
	return e, nil
}

// Release releases the worker pool.
// The engine should not be used after calling Release.
func (e *Engine) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Search runs req and returns matches best first.
func (e *Engine) Search(ctx context.Context, req Request) ([]*core.MatchResult, error) {
	return e.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs req, reporting progress to monitor.
func (e *Engine) SearchWithMonitor(ctx context.Context, req Request, monitor SearchMonitor) ([]*core.MatchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	monitor.Start(&req)

	criteria := req.Criteria.Normalize()
	entries, err := e.repository.GetAll(ctx)
	if err != nil {
		e.logger.Error("error loading database entries", "err", err)
		return nil, err
	}

	candidates := entries
	if !criteria.IsEmpty() {
		candidates = filter.Apply(entries, criteria)
	}
	monitor.AfterFilter(len(candidates), len(entries))
	e.logger.Debug("candidates selected", "candidates", len(candidates), "total", len(entries))

	if criteria.IsPeakOnly() {
		results := peakOnlyResults(candidates)
		monitor.Finish(results)
		return results, nil
	}

	query, err := e.prepareQuery(&req)
	if err != nil {
		return nil, err
	}

	outcomes, err := e.scoreAll(ctx, query, candidates, req.Algorithm)
	if err != nil {
		return nil, err
	}

	results := make([]*core.MatchResult, 0, len(candidates))
	for i, out := range outcomes {
		entry := candidates[i]
		if out.err != nil {
			e.logger.Warn("skipping candidate", "name", entry.Name, "err", out.err)
			monitor.CandidateSkipped(entry.Name, out.err)
			continue
		}
		monitor.CandidateScored(entry.Name, out.result)
		if out.result.Score < req.Threshold {
			continue
		}
		results = append(results, &core.MatchResult{
			Name:     entry.Name,
			Score:    out.result.Score,
			Metadata: entry.Metadata,
			Peaks:    entry.Peaks,
		})
	}

	slices.SortStableFunc(results, func(a, b *core.MatchResult) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), strings.Compare(a.Name, b.Name))
	})
	if len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	monitor.Finish(results)
	return results, nil
}

// prepareQuery applies smoothing, baseline correction and peak detection.
func (e *Engine) prepareQuery(req *Request) (*similarity.Query, error) {
	spectrum := req.Query
	if req.Smoothing != nil {
		smoothed, err := baseline.Smooth(spectrum.Intensities, *req.Smoothing)
		if err != nil {
			return nil, fmt.Errorf("%w: smoothing: %w", ErrInvalidRequest, err)
		}
		spectrum.Intensities = smoothed
	}
	if req.Baseline != nil {
		corrected, _, err := baseline.Correct(spectrum.Intensities, *req.Baseline)
		if err != nil {
			return nil, fmt.Errorf("%w: baseline: %w", ErrInvalidRequest, err)
		}
		spectrum.Intensities = corrected
	}

	if (req.Algorithm == similarity.DTW || req.Algorithm == similarity.Combined) && !e.scorer.DTWAvailable() {
		e.logger.Warn("DTW unavailable, scoring with correlation", "algorithm", req.Algorithm)
	}

	query := &similarity.Query{Spectrum: spectrum, Peaks: req.QueryPeaks}
	if len(query.Peaks) > 0 || !req.Algorithm.NeedsPeaks() {
		return query, nil
	}

	relative := req.PeakDetection
	if relative == (peaks.Relative{}) {
		relative = peaks.DefaultRelative(spectrum.Len())
	}
	params, err := relative.Absolute(spectrum.Intensities)
	if err != nil {
		return nil, fmt.Errorf("%w: peak detection: %w", ErrInvalidRequest, err)
	}
	query.Peaks, err = peaks.Find(&spectrum, params)
	if err != nil {
		return nil, fmt.Errorf("%w: peak detection: %w", ErrInvalidRequest, err)
	}
	e.logger.Debug("query peaks detected", "peaks", len(query.Peaks))
	return query, nil
}

type outcome struct {
	result similarity.Result
	err    error
}

// scoreAll scores every candidate on the pool. Outcomes are indexed like
// candidates. Cancellation stops submitting new candidates.
func (e *Engine) scoreAll(ctx context.Context, query *similarity.Query, candidates []*core.DatabaseEntry, alg similarity.Algorithm) ([]outcome, error) {
	outcomes := make([]outcome, len(candidates))
	var wg sync.WaitGroup
	for i, entry := range candidates {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				outcomes[i].err = err
				return
			}
			spectrum := entry.Spectrum()
			outcomes[i].result, outcomes[i].err = e.scorer.Score(query, &spectrum, alg)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submitting candidate %q: %w", entry.Name, err)
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func peakOnlyResults(candidates []*core.DatabaseEntry) []*core.MatchResult {
	results := make([]*core.MatchResult, len(candidates))
	for i, entry := range candidates {
		results[i] = &core.MatchResult{
			Name:     entry.Name,
			Score:    1.0,
			Metadata: entry.Metadata,
			Peaks:    entry.Peaks,
		}
	}
	slices.SortFunc(results, func(a, b *core.MatchResult) int {
		return strings.Compare(a.Name, b.Name)
	})
	return results
}
