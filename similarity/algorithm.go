package similarity

import (
	"fmt"
	"strings"

	"github.com/poiesic/ramanid/core"
)

// Algorithm selects a similarity measure.
type Algorithm int

const (
	Correlation Algorithm = iota
	Peak
	DTW
	Combined
)

var algorithmNames = [...]string{
	Correlation: "correlation",
	Peak:        "peak",
	DTW:         "dtw",
	Combined:    "combined",
}

func (a Algorithm) String() string {
	if a >= 0 && int(a) < len(algorithmNames) {
		return algorithmNames[a]
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid reports whether a names a known algorithm.
func (a Algorithm) Valid() bool {
	return a >= 0 && int(a) < len(algorithmNames)
}

// NeedsPeaks reports whether the algorithm uses query peaks.
func (a Algorithm) NeedsPeaks() bool {
	return a == Peak
}

// ParseAlgorithm converts a name into an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i, n := range algorithmNames {
		if n == normalized {
			return Algorithm(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown algorithm %q", core.ErrInvalidInput, name)
}
