// Package spectrumio reads Raman spectra from delimited text files.
//
// A file holds two numeric columns, wavenumber then intensity, separated by
// commas, tabs or whitespace. Lines starting with '#' carry "key: value" or
// "key = value" metadata; a non-numeric header row and unparsable lines are
// skipped. Files that are not valid UTF-8 are decoded as Latin-1.
package spectrumio
