// Package collector coordinates cache lookups, fetcher dispatch, and cache
// population. It is the unit of work the rest of the system calls: a single
// (source, params) fetch, a day-by-day historical backfill, or a parallel
// multi-source fetch with per-source failure isolation.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"climatefetcher/internal/cachestore"
	"climatefetcher/internal/dataset"
	"climatefetcher/internal/fetcher"
	"climatefetcher/internal/registry"
)

// Collector orchestrates fetch requests over a source registry and a
// persistent cache store. The registry and cache are the only state shared
// between concurrent fetches, and both are safe for concurrent use.
type Collector struct {
	sources *registry.Registry
	cache   *cachestore.Store
	log     *slog.Logger

	// flight collapses concurrent misses for the same cache key into a
	// single upstream call; the other callers wait for its result.
	flight singleflight.Group
}

// New creates a Collector over the given registry and cache store
func New(sources *registry.Registry, cache *cachestore.Store, log *slog.Logger) *Collector {
	if log == nil {
		log = slog.Default()
	}
	return &Collector{sources: sources, cache: cache, log: log}
}

// Fetch retrieves one dataset for (source, params), serving from the cache
// when possible. A cache hit is trusted indefinitely and returns without
// touching the fetcher. On a miss the registered fetcher is dispatched and
// the result is persisted best-effort: a failure to persist is logged but
// the freshly fetched dataset is still returned.
//
// Fails with ErrInvalidSource for an unknown source identifier (before any
// I/O) and with ErrSourceUnavailable, cause attached, when the fetcher
// cannot produce data.
func (c *Collector) Fetch(ctx context.Context, source string, params map[string]string) (*dataset.Dataset, error) {
	f, ok := c.sources.Lookup(source)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}

	key := cachestore.Key(source, params)
	if ds, hit := c.cache.Lookup(key); hit {
		c.log.Debug("serving from cache", "source", source, "key", key)
		return ds, nil
	}

	v, err, shared := c.flight.Do(key, func() (any, error) {
		// A waiter released just after the entry landed still gets the
		// cached copy instead of a second upstream call.
		if ds, hit := c.cache.Lookup(key); hit {
			return ds, nil
		}

		ds, err := f.Fetch(ctx, params)
		if err != nil {
			return nil, err
		}

		if err := c.cache.Put(key, ds); err != nil {
			c.log.Warn("failed to persist dataset to cache", "source", source, "key", key, "error", err)
		}
		return ds, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, source, err)
	}
	if shared {
		c.log.Debug("coalesced concurrent fetch", "source", source, "key", key)
	}
	return v.(*dataset.Dataset), nil
}

// FetchRange retrieves data for every calendar day from start to end
// inclusive and concatenates the results in ascending date order. Each
// day becomes one Fetch call with a "date" parameter set to that day's
// ISO date, so individual days are cached independently. Empty days are
// skipped; a range that yields no data at all returns an empty dataset,
// not an error.
//
// Fails with ErrInvalidRange, before any fetcher invocation, when start
// is after end.
func (c *Collector) FetchRange(ctx context.Context, source string, params map[string]string, start, end time.Time) (*dataset.Dataset, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s",
			ErrInvalidRange, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	var parts []*dataset.Dataset
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		p := maps.Clone(params)
		if p == nil {
			p = make(map[string]string, 1)
		}
		p["date"] = day.Format("2006-01-02")

		ds, err := c.Fetch(ctx, source, p)
		if err != nil {
			return nil, err
		}
		if !ds.Empty() {
			parts = append(parts, ds)
		}
	}
	return dataset.Concat(parts...)
}

// FetchMany fans one params object out to all the given sources
// concurrently and returns a mapping holding only the sources that
// succeeded. A source whose fetch fails is logged and omitted; partial
// success is the normal, expected outcome, and one bad source never
// aborts the batch.
func (c *Collector) FetchMany(ctx context.Context, sources []string, params map[string]string) map[string]*dataset.Dataset {
	results := make(chan fetcher.Result, len(sources))

	var wg sync.WaitGroup
	for _, source := range sources {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			ds, err := c.Fetch(ctx, src, params)
			results <- fetcher.Result{Source: src, Data: ds, Err: err}
		}(source)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]*dataset.Dataset, len(sources))
	for res := range results {
		if res.Err != nil {
			c.log.Warn("source omitted from multi-source result", "source", res.Source, "error", res.Err)
			continue
		}
		out[res.Source] = res.Data
	}
	return out
}
