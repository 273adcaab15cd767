package fetcher

import (
	"context"

	"climatefetcher/internal/dataset"
)

// Fetcher is the core interface implemented once per registered climate
// data source. Each fetcher knows how to call its upstream API and
// normalize the response into a tabular dataset.
//
// Implementations must be safe for concurrent use: the only state they
// hold is read-only configuration (API key, base URL, HTTP client).
type Fetcher interface {
	// Fetch retrieves data for the given parameters and returns it as a
	// fresh Dataset. Parameters are source-specific (location, variable,
	// date, ...); the historical backfill driver injects a "date"
	// parameter in ISO YYYY-MM-DD form.
	// Returns a *FetchError on any I/O or parsing failure.
	Fetch(ctx context.Context, params map[string]string) (*dataset.Dataset, error)

	// Source returns the registry identifier for this fetcher.
	// Examples:
	//   - climate_data_ca
	//   - globe
	//   - nasa_earth_data
	//   - noaa_climate
	Source() string
}
