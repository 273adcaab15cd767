package nasa

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"resty.dev/v3"

	"climatefetcher/internal/dataset"
	"climatefetcher/internal/fetcher"
	"climatefetcher/internal/ratelimit"
)

// powerFillValue is what the POWER API reports for days without data
const powerFillValue = -999.0

// PowerResponse represents the NASA POWER daily point API response.
// Parameter maps a variable name (e.g. T2M) to a date->value map keyed
// by YYYYMMDD strings.
type PowerResponse struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

// PowerFetcher fetches daily point data from the NASA POWER API
// (the data service behind NASA Earth Data for surface meteorology).
type PowerFetcher struct {
	community string
	client    *resty.Client
}

// NewPowerFetcher creates a new NASA POWER fetcher. The API requires no key.
func NewPowerFetcher(baseURL string) *PowerFetcher {
	return &PowerFetcher{
		community: "ag",
		client:    fetcher.NewHTTPClient(baseURL),
	}
}

// Source returns the registry identifier for this fetcher
func (f *PowerFetcher) Source() string {
	return "nasa_earth_data"
}

// Fetch retrieves one or more days of a single variable at a point.
// Recognized parameters: latitude, longitude (required), parameter
// (default T2M), and either date or start+end (YYYY-MM-DD).
func (f *PowerFetcher) Fetch(ctx context.Context, params map[string]string) (*dataset.Dataset, error) {
	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APINASAPower); err != nil {
		return nil, err
	}

	lat, lon := params["latitude"], params["longitude"]
	if lat == "" || lon == "" {
		return nil, fetcher.NewValidationError("latitude and longitude parameters are required")
	}

	variable := params["parameter"]
	if variable == "" {
		variable = "T2M"
	}

	start, end, err := dateWindow(params)
	if err != nil {
		return nil, err
	}

	var result PowerResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"parameters": variable,
			"community":  f.community,
			"latitude":   lat,
			"longitude":  lon,
			"start":      start,
			"end":        end,
			"format":     "JSON",
		}).
		SetResult(&result).
		Get("/api/temporal/daily/point")

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fetcher.NewTimeoutError(err)
		}
		return nil, fetcher.NewNetworkError(err)
	}

	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	values, ok := result.Properties.Parameter[variable]
	if !ok {
		return nil, fetcher.NewValidationError(fmt.Sprintf("parameter %q not found in POWER response", variable))
	}

	// Date keys come back in map order; sort for a deterministic dataset
	days := make([]string, 0, len(values))
	for day := range values {
		days = append(days, day)
	}
	sort.Strings(days)

	ds := dataset.New(
		dataset.Field{Name: "timestamp", Type: dataset.Timestamp},
		dataset.Field{Name: "parameter", Type: dataset.String},
		dataset.Field{Name: "value", Type: dataset.Float},
	)
	for _, day := range days {
		v := values[day]
		if v == powerFillValue {
			continue
		}
		ts, err := time.ParseInLocation("20060102", day, time.UTC)
		if err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("unparseable date %q in POWER response", day))
		}
		if err := ds.AppendRow(ts, variable, v); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// dateWindow turns the request parameters into the POWER start/end pair
// (YYYYMMDD). A single "date" fetch uses the same day for both.
func dateWindow(params map[string]string) (string, string, error) {
	if date := params["date"]; date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return "", "", fetcher.NewValidationError(fmt.Sprintf("invalid date parameter %q", date))
		}
		day := d.Format("20060102")
		return day, day, nil
	}

	startStr, endStr := params["start"], params["end"]
	if startStr == "" || endStr == "" {
		return "", "", fetcher.NewValidationError("either date or start+end parameters are required")
	}
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return "", "", fetcher.NewValidationError(fmt.Sprintf("invalid date parameter %q", startStr))
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return "", "", fetcher.NewValidationError(fmt.Sprintf("invalid date parameter %q", endStr))
	}
	return start.Format("20060102"), end.Format("20060102"), nil
}
