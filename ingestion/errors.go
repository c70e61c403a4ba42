package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a spectrum repository is not provided.
	ErrRepositoryRequired = errors.New("spectrum repository required")

	// ErrResolverRequired is returned when classification is requested without a resolver.
	ErrResolverRequired = errors.New("taxonomy resolver required")
)
