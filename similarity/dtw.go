package similarity

import (
	"fmt"
	"math"

	"github.com/poiesic/ramanid/core"
)

// Alignment is the outcome of warping one series onto another.
type Alignment struct {
	Cost       float64 // accumulated per-step distance along the path
	PathLength int     // number of matched pairs on the path
}

// Aligner computes a dynamic time warping alignment.
type Aligner interface {
	Align(a, b []float64) (Alignment, error)
}

// DynamicAligner is an exact DTW using absolute difference as the step cost.
// Window, when positive, restricts the path to a Sakoe-Chiba band of that
// many samples around the diagonal; it is widened as needed so a path from
// corner to corner always exists.
type DynamicAligner struct {
	Window int
}

var _ Aligner = DynamicAligner{}

// Align fills the cumulative cost matrix, carrying the length of the best
// path into each cell. Ties prefer the diagonal step, then the step that
// advances a, so results are deterministic.
func (d DynamicAligner) Align(a, b []float64) (Alignment, error) {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return Alignment{}, fmt.Errorf("%w: cannot align empty series", core.ErrInvalidInput)
	}

	window := max(n, m)
	if d.Window > 0 {
		window = max(d.Window, abs(n-m))
	}

	inf := math.Inf(1)
	cost := make([]float64, n*m)
	steps := make([]int, n*m)
	at := func(i, j int) int { return i*m + j }

	for i := range n {
		for j := range m {
			cost[at(i, j)] = inf
			if abs(i-j) > window {
				continue
			}
			step := math.Abs(a[i] - b[j])
			if i == 0 && j == 0 {
				cost[0] = step
				steps[0] = 1
				continue
			}
			best, bestSteps := inf, 0
			if i > 0 && j > 0 && cost[at(i-1, j-1)] < best {
				best, bestSteps = cost[at(i-1, j-1)], steps[at(i-1, j-1)]
			}
			if i > 0 && cost[at(i-1, j)] < best {
				best, bestSteps = cost[at(i-1, j)], steps[at(i-1, j)]
			}
			if j > 0 && cost[at(i, j-1)] < best {
				best, bestSteps = cost[at(i, j-1)], steps[at(i, j-1)]
			}
			if math.IsInf(best, 1) {
				continue
			}
			cost[at(i, j)] = best + step
			steps[at(i, j)] = bestSteps + 1
		}
	}

	last := at(n-1, m-1)
	if math.IsInf(cost[last], 1) {
		return Alignment{}, fmt.Errorf("%w: no warping path within window %d", core.ErrComputation, window)
	}
	return Alignment{Cost: cost[last], PathLength: steps[last]}, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
