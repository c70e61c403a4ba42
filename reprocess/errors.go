package reprocess

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRepositoryRequired is returned when a spectrum repository is not provided.
	ErrRepositoryRequired = errors.New("spectrum repository required")

	// ErrResolverRequired is returned when classification is enabled without a resolver.
	ErrResolverRequired = errors.New("taxonomy resolver required for classification")

	// ErrNoTasks is returned when neither classification nor peak detection is enabled.
	ErrNoTasks = errors.New("no reprocessing tasks enabled")
)
