// Package peaks locates local maxima in a spectrum subject to height,
// distance and prominence constraints.
//
// A candidate is a sample (or run of equal samples) with a strictly lower
// neighbour on both sides; a plateau is reported at its middle index, the
// lower middle for even widths. The first and last samples are never
// candidates. Filters are applied in the order height, distance, prominence.
//
// Distance filtering visits candidates from tallest to shortest (ties keep
// the lower index) and removes every remaining neighbour closer than the
// requested distance, so the survivors are pairwise at least Distance
// samples apart.
//
// Prominence is measured by walking outward from the peak on each side until
// a strictly higher sample or the end of the spectrum, taking the lowest
// sample seen on each side. The prominence is the peak height minus the
// higher of the two minima. Samples equal to the peak are walked through, so
// the two halves of a split plateau do not cancel each other.
//
// Detection is deterministic: the same intensities and parameters always
// give the same indices.
package peaks
