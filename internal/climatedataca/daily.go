package climatedataca

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resty.dev/v3"

	"climatefetcher/internal/dataset"
	"climatefetcher/internal/fetcher"
	"climatefetcher/internal/ratelimit"
)

// TimeseriesResponse represents a ClimateData.ca daily timeseries response
type TimeseriesResponse struct {
	Variable string `json:"variable"`
	Units    string `json:"units"`
	Data     []struct {
		Time  string  `json:"time"` // YYYY-MM-DD
		Value float64 `json:"value"`
	} `json:"data"`
}

// DailyFetcher fetches daily climate variables for a point from
// ClimateData.ca
type DailyFetcher struct {
	client *resty.Client
}

// NewDailyFetcher creates a new ClimateData.ca fetcher. The API is open;
// no key is required.
func NewDailyFetcher(baseURL string) *DailyFetcher {
	return &DailyFetcher{
		client: fetcher.NewHTTPClient(baseURL),
	}
}

// Source returns the registry identifier for this fetcher
func (f *DailyFetcher) Source() string {
	return "climate_data_ca"
}

// Fetch retrieves a daily variable timeseries at a point. Recognized
// parameters: lat, lon (required), variable (default tg_mean), and
// optionally date (YYYY-MM-DD) to restrict the series to one day.
func (f *DailyFetcher) Fetch(ctx context.Context, params map[string]string) (*dataset.Dataset, error) {
	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIClimateDataCA); err != nil {
		return nil, err
	}

	lat, lon := params["lat"], params["lon"]
	if lat == "" || lon == "" {
		return nil, fetcher.NewValidationError("lat and lon parameters are required")
	}

	variable := params["variable"]
	if variable == "" {
		variable = "tg_mean"
	}

	query := map[string]string{
		"lat":    lat,
		"lon":    lon,
		"var":    variable,
		"format": "json",
	}
	if date := params["date"]; date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("invalid date parameter %q", date))
		}
		query["start"] = date
		query["end"] = date
	}

	var result TimeseriesResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(&result).
		Get("/api/v1/timeseries/daily")

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fetcher.NewTimeoutError(err)
		}
		return nil, fetcher.NewNetworkError(err)
	}

	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	ds := dataset.New(
		dataset.Field{Name: "timestamp", Type: dataset.Timestamp},
		dataset.Field{Name: "variable", Type: dataset.String},
		dataset.Field{Name: "value", Type: dataset.Float},
	)
	for _, point := range result.Data {
		ts, err := time.ParseInLocation("2006-01-02", point.Time, time.UTC)
		if err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("unparseable time %q in timeseries response", point.Time))
		}
		if err := ds.AppendRow(ts, variable, point.Value); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
