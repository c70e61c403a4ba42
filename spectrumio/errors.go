package spectrumio

import "errors"

var (
	// ErrNoData is returned when a file contains no numeric data rows.
	ErrNoData = errors.New("no spectral data found")
)
