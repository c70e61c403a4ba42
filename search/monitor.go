package search

import (
	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/similarity"
)

// SearchMonitor provides hooks to observe the search process.
// Callbacks are made from the goroutine that called Search, in candidate
// order, so implementations need no locking.
type SearchMonitor interface {
	Start(req *Request)
	AfterFilter(candidates, total int)
	CandidateScored(name string, result similarity.Result)
	CandidateSkipped(name string, err error)
	Finish(results []*core.MatchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *Request)                              {}
func (n *noopMonitor) AfterFilter(_, _ int)                          {}
func (n *noopMonitor) CandidateScored(_ string, _ similarity.Result) {}
func (n *noopMonitor) CandidateSkipped(_ string, _ error)            {}
func (n *noopMonitor) Finish(_ []*core.MatchResult)                  {}
