package fetcher

import "climatefetcher/internal/dataset"

// Result represents the outcome of one source's fetch operation.
// It's designed to be sent through channels from worker goroutines
// to the collector that aggregates a multi-source request.
type Result struct {
	// Source is the registry identifier the result belongs to
	Source string

	// Data is the fetched dataset.
	// If Err is not nil, Data should be considered invalid.
	Data *dataset.Dataset

	// Err contains any error that occurred during the fetch operation
	Err error
}
