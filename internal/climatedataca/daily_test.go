package climatedataca

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"climatefetcher/internal/fetcher"
)

func TestNewDailyFetcher(t *testing.T) {
	f := NewDailyFetcher("https://data.climatedata.ca")
	if f == nil {
		t.Fatal("NewDailyFetcher() returned nil")
	}
	if f.Source() != "climate_data_ca" {
		t.Errorf("Source() = %q, want %q", f.Source(), "climate_data_ca")
	}
}

func TestDailyFetcher_Fetch_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("var") != "tg_mean" {
			t.Errorf("var = %q, want tg_mean", q.Get("var"))
		}
		if q.Get("start") != "2024-06-01" || q.Get("end") != "2024-06-01" {
			t.Errorf("start/end = %q/%q", q.Get("start"), q.Get("end"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"variable": "tg_mean",
			"units": "degC",
			"data": [
				{"time": "2024-06-01", "value": 17.3}
			]
		}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	f := NewDailyFetcher(server.URL)
	ds, err := f.Fetch(context.Background(), map[string]string{
		"lat":  "45.5",
		"lon":  "-73.6",
		"date": "2024-06-01",
	})
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	if ds.NumRows() != 1 {
		t.Fatalf("Fetch() rows = %d, want 1", ds.NumRows())
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if ts := ds.Value(0, 0).(time.Time); !ts.Equal(want) {
		t.Errorf("timestamp = %v, want %v", ts, want)
	}
	if ds.Value(0, 1) != "tg_mean" || ds.Value(0, 2) != 17.3 {
		t.Errorf("row = %v, %v, want tg_mean, 17.3", ds.Value(0, 1), ds.Value(0, 2))
	}
}

func TestDailyFetcher_Fetch_MissingLocation(t *testing.T) {
	f := NewDailyFetcher("http://localhost")

	_, err := f.Fetch(context.Background(), map[string]string{"date": "2024-06-01"})
	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Type != fetcher.ErrorTypeValidation {
		t.Errorf("Fetch() error = %v, want validation FetchError", err)
	}
}

func TestDailyFetcher_Fetch_BadDate(t *testing.T) {
	f := NewDailyFetcher("http://localhost")

	_, err := f.Fetch(context.Background(), map[string]string{
		"lat": "45.5", "lon": "-73.6", "date": "06/01/2024",
	})
	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Type != fetcher.ErrorTypeValidation {
		t.Errorf("Fetch() error = %v, want validation FetchError", err)
	}
}

func TestDailyFetcher_Fetch_ServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewDailyFetcher(server.URL)
	_, err := f.Fetch(context.Background(), map[string]string{
		"lat": "45.5", "lon": "-73.6", "date": "2024-06-01",
	})

	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Type != fetcher.ErrorTypeServer {
		t.Errorf("Fetch() error = %v, want server FetchError", err)
	}
	// The shared client retries 5xx responses before giving up
	if attempts < 2 {
		t.Errorf("server saw %d attempts, want retries on 5xx", attempts)
	}
}
