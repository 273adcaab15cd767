// Package registry maps source identifiers to their fetchers. The mapping
// is built once at startup and read-only afterwards, so it is safe to
// share between concurrent fetches.
package registry

import (
	"fmt"
	"sort"

	"climatefetcher/internal/fetcher"
)

// Registry is the static source identifier -> Fetcher mapping
type Registry struct {
	fetchers map[string]fetcher.Fetcher
}

// New builds a registry from the given fetchers, keyed by Source().
// Registering two fetchers for the same source is a wiring bug and fails.
func New(fetchers ...fetcher.Fetcher) (*Registry, error) {
	r := &Registry{fetchers: make(map[string]fetcher.Fetcher, len(fetchers))}
	for _, f := range fetchers {
		src := f.Source()
		if _, dup := r.fetchers[src]; dup {
			return nil, fmt.Errorf("duplicate fetcher for source %q", src)
		}
		r.fetchers[src] = f
	}
	return r, nil
}

// Lookup returns the fetcher registered for source, by exact string match
func (r *Registry) Lookup(source string) (fetcher.Fetcher, bool) {
	f, ok := r.fetchers[source]
	return f, ok
}

// Sources returns all registered source identifiers, sorted
func (r *Registry) Sources() []string {
	out := make([]string, 0, len(r.fetchers))
	for src := range r.fetchers {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}
