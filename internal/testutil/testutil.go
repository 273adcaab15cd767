package testutil

import (
	"context"
	"sync/atomic"
	"time"

	"climatefetcher/internal/dataset"
	"climatefetcher/internal/fetcher"
)

// StubFetcher is a stub implementation of the Fetcher interface for
// testing. It counts Fetch invocations so tests can assert that the cache
// prevented (or single-flight collapsed) upstream calls.
type StubFetcher struct {
	SourceName string
	FetchFunc  func(ctx context.Context, params map[string]string) (*dataset.Dataset, error)

	calls atomic.Int64
}

// Fetch implements the Fetcher interface
func (s *StubFetcher) Fetch(ctx context.Context, params map[string]string) (*dataset.Dataset, error) {
	s.calls.Add(1)
	if s.FetchFunc != nil {
		return s.FetchFunc(ctx, params)
	}
	return dataset.New(), nil
}

// Source implements the Fetcher interface
func (s *StubFetcher) Source() string {
	if s.SourceName == "" {
		return "stub"
	}
	return s.SourceName
}

// Calls returns how many times Fetch has been invoked
func (s *StubFetcher) Calls() int {
	return int(s.calls.Load())
}

// NewStubFetcher creates a stub fetcher that always returns the given
// dataset and error
func NewStubFetcher(source string, ds *dataset.Dataset, err error) *StubFetcher {
	return &StubFetcher{
		SourceName: source,
		FetchFunc: func(ctx context.Context, params map[string]string) (*dataset.Dataset, error) {
			return ds, err
		},
	}
}

// SampleDataset returns a small 3-row {timestamp, value} dataset
func SampleDataset() *dataset.Dataset {
	ds := dataset.New(
		dataset.Field{Name: "timestamp", Type: dataset.Timestamp},
		dataset.Field{Name: "value", Type: dataset.Float},
	)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_ = ds.AppendRow(base.AddDate(0, 0, i), float64(i)+0.5)
	}
	return ds
}

var _ fetcher.Fetcher = (*StubFetcher)(nil)
