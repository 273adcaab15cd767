package noaa

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

// cdoTimeLayout is the timestamp format the CDO v2 API uses
const cdoTimeLayout = "2006-01-02T15:04:05"

// DataResponse represents the NOAA Climate Data Online v2 /data response
type DataResponse struct {
	Metadata struct {
		Resultset struct {
			Count  int `json:"count"`
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
		} `json:"resultset"`
	} `json:"metadata"`
	Results []struct {
		Date     string  `json:"date"`
		Datatype string  `json:"datatype"`
		Station  string  `json:"station"`
		Value    float64 `json:"value"`
	} `json:"results"`
}

// ClimateFetcher fetches daily observations from NOAA Climate Data Online
type ClimateFetcher struct {
	token  string
	client *resty.Client
}

// NewClimateFetcher creates a new NOAA CDO fetcher. The token is the CDO
// web-services token sent on every request.
func NewClimateFetcher(token, baseURL string) *ClimateFetcher {
	client := fetcher.NewHTTPClient(baseURL).
		SetHeader("token", token)

	return &ClimateFetcher{
		token:  token,
		client: client,
	}
}

// Source returns the registry identifier for this fetcher
func (f *ClimateFetcher) Source() string {
	return "noaa_climate"
}

// Fetch retrieves observations for a station and day. Recognized
// parameters: stationid (required), datasetid (default GHCND), datatypeid
// (optional), and either date or startdate+enddate (YYYY-MM-DD).
func (f *ClimateFetcher) Fetch(ctx context.Context, params map[string]string) (*dataset.Dataset, error) {
	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APINOAACDO); err != nil {
		return nil, err
	}

	station := params["stationid"]
	if station == "" {
		return nil, fetcher.NewValidationError("stationid parameter is required")
	}

	datasetID := params["datasetid"]
	if datasetID == "" {
		datasetID = "GHCND"
	}

	startDate, endDate := params["startdate"], params["enddate"]
	if date := params["date"]; date != "" {
		startDate, endDate = date, date
	}
	if startDate == "" || endDate == "" {
		return nil, fetcher.NewValidationError("either date or startdate+enddate parameters are required")
	}

	query := map[string]string{
		"datasetid": datasetID,
		"stationid": station,
		"startdate": startDate,
		"enddate":   endDate,
		"units":     "metric",
		"limit":     "1000",
	}
	if dt := params["datatypeid"]; dt != "" {
		query["datatypeid"] = dt
	}

	var result DataResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(&result).
		Get("/data")

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
		dataset.Field{Name: "station", Type: dataset.String},
		dataset.Field{Name: "datatype", Type: dataset.String},
		dataset.Field{Name: "value", Type: dataset.Float},
	)
	for _, obs := range result.Results {
		ts, err := time.ParseInLocation(cdoTimeLayout, obs.Date, time.UTC)
		if err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("unparseable date %q in CDO response", obs.Date))
		}
		if err := ds.AppendRow(ts, obs.Station, obs.Datatype, obs.Value); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
