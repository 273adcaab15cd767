package collector

import "errors"

var (
	// ErrInvalidSource marks a request for a source identifier that is not
	// in the registry. Caller error; rejected before any I/O, never retried.
	ErrInvalidSource = errors.New("invalid source")

	// ErrInvalidRange marks a historical request whose start date is after
	// its end date. Caller error; rejected before any I/O.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrSourceUnavailable marks a fetch whose underlying fetcher failed
	// after its own retries were exhausted. The cause is attached to the
	// error chain. Failures are never cached.
	ErrSourceUnavailable = errors.New("source unavailable")
)
