package globe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"resty.dev/v3"

	"climatefetcher/internal/dataset"
	"climatefetcher/internal/fetcher"
	"climatefetcher/internal/ratelimit"
)

// valuePaths maps a GLOBE protocol to the gjson path of its primary
// measurement inside each result's "data" object. The response nests a
// protocol-specific payload, so the value is extracted by path rather
// than decoded into a fixed struct.
var valuePaths = map[string]string{
	"air_temps":      "data.airtempsCurrentTemp",
	"precipitations": "data.precipitationsRainAmountMm",
	"humidities":     "data.humiditiesRelativeHumidityPercent",
}

// ObservationFetcher fetches citizen-science measurements from the GLOBE
// observation API
type ObservationFetcher struct {
	client *resty.Client
}

// NewObservationFetcher creates a new GLOBE fetcher. The API is open; no
// key is required.
func NewObservationFetcher(baseURL string) *ObservationFetcher {
	return &ObservationFetcher{
		client: fetcher.NewHTTPClient(baseURL),
	}
}

// Source returns the registry identifier for this fetcher
func (f *ObservationFetcher) Source() string {
	return "globe"
}

// Fetch retrieves measurements for one protocol and day. Recognized
// parameters: protocol (default air_temps) and date (YYYY-MM-DD,
// required).
func (f *ObservationFetcher) Fetch(ctx context.Context, params map[string]string) (*dataset.Dataset, error) {
	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIGlobe); err != nil {
		return nil, err
	}

	protocol := params["protocol"]
	if protocol == "" {
		protocol = "air_temps"
	}
	valuePath, ok := valuePaths[protocol]
	if !ok {
		return nil, fetcher.NewValidationError(fmt.Sprintf("unsupported GLOBE protocol %q", protocol))
	}

	date := params["date"]
	if date == "" {
		return nil, fetcher.NewValidationError("date parameter is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fetcher.NewValidationError(fmt.Sprintf("invalid date parameter %q", date))
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"protocols": protocol,
			"startdate": date,
			"enddate":   date,
			"geojson":   "FALSE",
			"sample":    "FALSE",
		}).
		Get("/search/v1/measurement/protocol/measureddate/")

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fetcher.NewTimeoutError(err)
		}
		return nil, fetcher.NewNetworkError(err)
	}

	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	body := resp.Bytes()
	if !gjson.ValidBytes(body) {
		return nil, fetcher.NewValidationError("GLOBE response is not valid JSON")
	}

	ds := dataset.New(
		dataset.Field{Name: "timestamp", Type: dataset.Timestamp},
		dataset.Field{Name: "site", Type: dataset.String},
		dataset.Field{Name: "value", Type: dataset.Float},
	)

	var appendErr error
	gjson.GetBytes(body, "results").ForEach(func(_, obs gjson.Result) bool {
		value := obs.Get(valuePath)
		if !value.Exists() {
			// Sites report protocols unevenly; skip observations
			// without the measurement we asked for.
			return true
		}

		ts, err := time.ParseInLocation("2006-01-02", obs.Get("measuredDate").String(), time.UTC)
		if err != nil {
			appendErr = fetcher.NewValidationError(fmt.Sprintf("unparseable measuredDate %q in GLOBE response", obs.Get("measuredDate").String()))
			return false
		}

		if err := ds.AppendRow(ts, obs.Get("siteName").String(), value.Float()); err != nil {
			appendErr = err
			return false
		}
		return true
	})
	if appendErr != nil {
		return nil, appendErr
	}
	return ds, nil
}
