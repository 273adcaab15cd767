package nasa

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"climatefetcher/internal/fetcher"
)

func TestNewPowerFetcher(t *testing.T) {
	f := NewPowerFetcher("https://power.larc.nasa.gov")
	if f == nil {
		t.Fatal("NewPowerFetcher() returned nil")
	}
	if f.Source() != "nasa_earth_data" {
		t.Errorf("Source() = %q, want %q", f.Source(), "nasa_earth_data")
	}
}

func TestPowerFetcher_Fetch_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify query parameters
		if r.URL.Query().Get("parameters") != "T2M" {
			t.Errorf("parameters = %q, want T2M", r.URL.Query().Get("parameters"))
		}
		if r.URL.Query().Get("start") != "20240601" || r.URL.Query().Get("end") != "20240601" {
			t.Errorf("start/end = %q/%q, want 20240601/20240601",
				r.URL.Query().Get("start"), r.URL.Query().Get("end"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"properties": {
				"parameter": {
					"T2M": {
						"20240601": 18.4,
						"20240602": -999,
						"20240603": 19.1
					}
				}
			}
		}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	f := NewPowerFetcher(server.URL)
	ds, err := f.Fetch(context.Background(), map[string]string{
		"latitude":  "45.5",
		"longitude": "-73.6",
		"date":      "2024-06-01",
	})
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	// Fill-value day dropped, remaining days sorted ascending
	if ds.NumRows() != 2 {
		t.Fatalf("Fetch() rows = %d, want 2", ds.NumRows())
	}
	wantFirst := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if ts := ds.Value(0, 0).(time.Time); !ts.Equal(wantFirst) {
		t.Errorf("row 0 timestamp = %v, want %v", ts, wantFirst)
	}
	if ds.Value(0, 1) != "T2M" {
		t.Errorf("row 0 parameter = %v, want T2M", ds.Value(0, 1))
	}
	if ds.Value(1, 2) != 19.1 {
		t.Errorf("row 1 value = %v, want 19.1", ds.Value(1, 2))
	}
}

func TestPowerFetcher_Fetch_MissingLocation(t *testing.T) {
	f := NewPowerFetcher("http://localhost")

	_, err := f.Fetch(context.Background(), map[string]string{"date": "2024-06-01"})
	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Type != fetcher.ErrorTypeValidation {
		t.Errorf("Fetch() error = %v, want validation FetchError", err)
	}
}

func TestPowerFetcher_Fetch_MissingParameterInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"properties": {"parameter": {}}}`))
	}))
	defer server.Close()

	f := NewPowerFetcher(server.URL)
	_, err := f.Fetch(context.Background(), map[string]string{
		"latitude": "45.5", "longitude": "-73.6", "date": "2024-06-01",
	})

	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Type != fetcher.ErrorTypeValidation {
		t.Errorf("Fetch() error = %v, want validation FetchError", err)
	}
}

func TestPowerFetcher_Fetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	f := NewPowerFetcher(server.URL)
	_, err := f.Fetch(context.Background(), map[string]string{
		"latitude": "45.5", "longitude": "-73.6", "date": "2024-06-01",
	})

	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Type != fetcher.ErrorTypeClient {
		t.Errorf("Fetch() error = %v, want client FetchError", err)
	}
}

func TestDateWindow(t *testing.T) {
	tests := []struct {
		name      string
		params    map[string]string
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{"single date", map[string]string{"date": "2024-06-01"}, "20240601", "20240601", false},
		{"start and end", map[string]string{"start": "2024-06-01", "end": "2024-06-30"}, "20240601", "20240630", false},
		{"date wins over window", map[string]string{"date": "2024-06-01", "start": "2023-01-01", "end": "2023-12-31"}, "20240601", "20240601", false},
		{"missing", map[string]string{}, "", "", true},
		{"malformed date", map[string]string{"date": "June 1st"}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := dateWindow(tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("dateWindow() error = %v, wantErr %v", err, tt.wantErr)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("dateWindow() = %q, %q, want %q, %q", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
