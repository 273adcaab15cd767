package cachestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"climatefetcher/internal/dataset"
)

func sampleDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds := dataset.New(
		dataset.Field{Name: "timestamp", Type: dataset.Timestamp},
		dataset.Field{Name: "value", Type: dataset.Float},
	)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := ds.AppendRow(base.AddDate(0, 0, i), float64(i)); err != nil {
			t.Fatal(err)
		}
	}
	return ds
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v", err)
	}
	return s
}

func TestLookup_Miss(t *testing.T) {
	s := newStore(t)

	if _, hit := s.Lookup(Key("globe", nil)); hit {
		t.Error("Lookup() reported a hit on an empty store")
	}
}

func TestPutLookup_RoundTrip(t *testing.T) {
	s := newStore(t)
	ds := sampleDataset(t)
	key := Key("noaa_climate", map[string]string{"date": "2024-06-01"})

	if err := s.Put(key, ds); err != nil {
		t.Fatalf("Put() returned unexpected error: %v", err)
	}

	got, hit := s.Lookup(key)
	if !hit {
		t.Fatal("Lookup() missed after Put()")
	}
	if !ds.Equal(got) {
		t.Error("Lookup() returned a dataset differing from what was stored")
	}
}

func TestLookup_CorruptEntryIsMiss(t *testing.T) {
	s := newStore(t)
	ds := sampleDataset(t)
	key := Key("globe", map[string]string{"date": "2024-06-01"})

	if err := s.Put(key, ds); err != nil {
		t.Fatal(err)
	}

	// Clobber the entry with garbage
	if err := os.WriteFile(s.Path(key), []byte("definitely not arrow"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit := s.Lookup(key); hit {
		t.Error("Lookup() reported a hit for a corrupt entry")
	}
}

func TestPut_Overwrite(t *testing.T) {
	s := newStore(t)
	key := Key("globe", map[string]string{"date": "2024-06-01"})

	if err := s.Put(key, sampleDataset(t)); err != nil {
		t.Fatal(err)
	}

	fresh := dataset.New(dataset.Field{Name: "value", Type: dataset.Float})
	if err := fresh.AppendRow(42.0); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(key, fresh); err != nil {
		t.Fatalf("Put() overwrite returned unexpected error: %v", err)
	}

	got, hit := s.Lookup(key)
	if !hit {
		t.Fatal("Lookup() missed after overwrite")
	}
	if !fresh.Equal(got) {
		t.Error("Lookup() returned the old entry after overwrite")
	}
}

func TestPut_ConcurrentDistinctKeys(t *testing.T) {
	s := newStore(t)
	ds := sampleDataset(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := Key("globe", map[string]string{"date": fmt.Sprintf("2024-06-%02d", n+1)})
			if err := s.Put(key, ds); err != nil {
				t.Errorf("Put() returned unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		key := Key("globe", map[string]string{"date": fmt.Sprintf("2024-06-%02d", i+1)})
		got, hit := s.Lookup(key)
		if !hit || !ds.Equal(got) {
			t.Fatalf("entry %d missing or corrupt after concurrent writes", i)
		}
	}
}

func TestPut_LeavesNoTempFiles(t *testing.T) {
	s := newStore(t)
	key := Key("globe", map[string]string{"date": "2024-06-01"})
	if err := s.Put(key, sampleDataset(t)); err != nil {
		t.Fatal(err)
	}

	matches, err := filepath.Glob(filepath.Join(s.Dir(), "*.tmp-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("found %d leftover temp files: %v", len(matches), matches)
	}
}
