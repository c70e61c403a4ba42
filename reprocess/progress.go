package reprocess

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// progress prints a running tally of a reprocessing run. Lines are
// rewritten in place with a carriage return; done ends the line.
type progress struct {
	mu      sync.Mutex
	w       io.Writer
	total   int
	every   int
	began   time.Time
	running bool
	tally   Stats
	printed int
}

// newProgress reports on a run over total entries, printing whenever at
// least every entries have been processed since the last line.
func newProgress(w io.Writer, total, every int) *progress {
	return &progress{w: w, total: total, every: max(every, 1)}
}

func (p *progress) begin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.began = time.Now()
	p.running = true
	p.tally = Stats{}
	p.printed = 0
}

// record folds the stats of a finished batch into the tally.
func (p *progress) record(batch Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.tally.add(batch)
	if p.processed()-p.printed >= p.every {
		p.print()
		p.printed = p.processed()
	}
}

// done prints the final tally and returns it along with the run time.
func (p *progress) done() (Stats, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return Stats{}, 0
	}
	p.running = false
	p.print()
	fmt.Fprintln(p.w)
	return p.tally, time.Since(p.began)
}

// processed caps the tally at total; a resumed run may see entries added
// after it was counted.
func (p *progress) processed() int {
	return min(p.tally.Processed, p.total)
}

func (p *progress) print() {
	n := p.processed()
	pct := 100.0
	if p.total > 0 {
		pct = float64(n) / float64(p.total) * 100
	}
	rate := float64(n) / time.Since(p.began).Seconds()
	fmt.Fprintf(p.w, "\r%d/%d spectra (%.1f%%) %d classified %d unresolved %d failed, %.1f spectra/s",
		n, p.total, pct, p.tally.Classified, p.tally.Unresolved, p.tally.Failed, rate)
}
