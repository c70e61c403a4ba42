// Package ingestion adds reference spectra to a database.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Validating entries and converting stored peaks to wavenumbers
//   - Detecting peaks for entries that arrive without any
//   - Storing entries, replacing same-named ones
//   - Classifying entries against the mineral taxonomy asynchronously
//
// Classification runs on a worker pool. Its errors are logged but do not fail
// the ingestion operation.
package ingestion
