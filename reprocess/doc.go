// Package reprocess re-runs peak detection and taxonomy classification over
// every entry of an existing database.
//
// Entries are read in name order in batches, so an interrupted run can be
// resumed from a checkpoint. Writes are retried with exponential backoff and
// progress is reported to a writer.
package reprocess
