package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"climatefetcher/internal/cachestore"
	"climatefetcher/internal/climatedataca"
	"climatefetcher/internal/collector"
	"climatefetcher/internal/config"
	"climatefetcher/internal/fetcher"
	"climatefetcher/internal/globe"
	"climatefetcher/internal/nasa"
	"climatefetcher/internal/noaa"
	"climatefetcher/internal/registry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Create fetchers for the configured sources
	var fetchers []fetcher.Fetcher
	for _, source := range cfg.Sources {
		switch source {
		case "climate_data_ca":
			fetchers = append(fetchers, climatedataca.NewDailyFetcher(cfg.ClimateDataCABaseURL))
		case "globe":
			fetchers = append(fetchers, globe.NewObservationFetcher(cfg.GlobeBaseURL))
		case "nasa_earth_data":
			fetchers = append(fetchers, nasa.NewPowerFetcher(cfg.NASAPowerBaseURL))
		case "noaa_climate":
			fetchers = append(fetchers, noaa.NewClimateFetcher(cfg.NOAAToken, cfg.NOAABaseURL))
		}
	}

	sources, err := registry.New(fetchers...)
	if err != nil {
		log.Fatalf("Failed to build source registry: %v", err)
	}

	cache, err := cachestore.New(cfg.CacheDir, slog.Default())
	if err != nil {
		log.Fatalf("Failed to open cache store: %v", err)
	}

	coll := collector.New(sources, cache, slog.Default())

	// Add timeout to prevent hanging indefinitely
	fetchCtx, fetchCancel := context.WithTimeout(ctx, 5*time.Minute)
	defer fetchCancel()

	// Backfill mode: walk the configured window day by day
	if start, end, ok := cfg.HistoryRange(); ok {
		fmt.Printf("Backfilling %s through %s...\n", cfg.HistoryStart, cfg.HistoryEnd)
		fmt.Println("================================================")
		for _, source := range cfg.Sources {
			ds, err := coll.FetchRange(fetchCtx, source, cfg.DefaultParams, start, end)
			if err != nil {
				fmt.Printf("%s: ERROR - %v\n", source, err)
				continue
			}
			fmt.Printf("%s: %d rows\n", source, ds.NumRows())
		}
		fmt.Println("================================================")
		fmt.Println("Backfill completed!")
		return
	}

	// Default mode: fetch yesterday's data from every source in parallel
	params := make(map[string]string, len(cfg.DefaultParams)+1)
	for k, v := range cfg.DefaultParams {
		params[k] = v
	}
	if params["date"] == "" {
		params["date"] = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	}

	fmt.Println("Fetching climate data from multiple sources...")
	fmt.Println("================================================")
	results := coll.FetchMany(fetchCtx, cfg.Sources, params)
	for _, source := range cfg.Sources {
		if ds, ok := results[source]; ok {
			fmt.Printf("%s: %d rows\n", source, ds.NumRows())
		} else {
			fmt.Printf("%s: ERROR - source omitted (see logs)\n", source)
		}
	}
	fmt.Println("================================================")
	fmt.Println("All fetches completed!")
}
