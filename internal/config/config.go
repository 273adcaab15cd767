package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// knownSources are the source identifiers the application can register
var knownSources = map[string]bool{
	"climate_data_ca": true,
	"globe":           true,
	"nasa_earth_data": true,
	"noaa_climate":    true,
}

// Config holds all configuration for the climate fetcher application.
type Config struct {
	// Cache directory for fetched datasets
	CacheDir string `mapstructure:"cache_dir"`

	// Sources to register and fetch from
	Sources []string `mapstructure:"sources"`

	// NOAA CDO web-services token (the only upstream that needs one)
	NOAAToken string `mapstructure:"noaa_token"`

	// Base URLs for API endpoints (configurable for testing)
	ClimateDataCABaseURL string `mapstructure:"climatedata_ca_base_url"`
	GlobeBaseURL         string `mapstructure:"globe_base_url"`
	NASAPowerBaseURL     string `mapstructure:"nasa_power_base_url"`
	NOAABaseURL          string `mapstructure:"noaa_base_url"`

	// Shared request parameters (location, variable, ...) passed to
	// every source
	DefaultParams map[string]string `mapstructure:"default_params"`

	// Optional historical backfill window (YYYY-MM-DD, inclusive).
	// When set, the binary backfills instead of fetching the latest day.
	HistoryStart string `mapstructure:"history_start"`
	HistoryEnd   string `mapstructure:"history_end"`
}

// Load reads configuration from environment variables and optional config file.
// Environment variables take precedence over config file values.
//
// Expected environment variables:
//   - NOAA_TOKEN (required when noaa_climate is enabled)
//   - CACHE_DIR (optional, defaults to data/cache)
//   - CLIMATEDATA_CA_BASE_URL (optional, defaults to production)
//   - GLOBE_BASE_URL (optional, defaults to production)
//   - NASA_POWER_BASE_URL (optional, defaults to production)
//   - NOAA_BASE_URL (optional, defaults to production)
//   - HISTORY_START / HISTORY_END (optional backfill window)
func Load() (*Config, error) {
	v := viper.New()

	// Set up environment variable support
	v.SetEnvPrefix("") // No prefix, use full names
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("cache_dir", "data/cache")
	v.SetDefault("sources", []string{"climate_data_ca", "globe", "nasa_earth_data", "noaa_climate"})
	v.SetDefault("climatedata_ca_base_url", "https://data.climatedata.ca")
	v.SetDefault("globe_base_url", "https://api.globe.gov")
	v.SetDefault("nasa_power_base_url", "https://power.larc.nasa.gov")
	v.SetDefault("noaa_base_url", "https://www.ncei.noaa.gov/cdo-web/api/v2")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.climatefetcher")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	// Bind environment variables
	v.BindEnv("cache_dir", "CACHE_DIR")
	v.BindEnv("noaa_token", "NOAA_TOKEN")
	v.BindEnv("climatedata_ca_base_url", "CLIMATEDATA_CA_BASE_URL")
	v.BindEnv("globe_base_url", "GLOBE_BASE_URL")
	v.BindEnv("nasa_power_base_url", "NASA_POWER_BASE_URL")
	v.BindEnv("noaa_base_url", "NOAA_BASE_URL")
	v.BindEnv("history_start", "HISTORY_START")
	v.BindEnv("history_end", "HISTORY_END")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate sources
	if len(config.Sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}
	var unknown []string
	for _, src := range config.Sources {
		if !knownSources[src] {
			unknown = append(unknown, src)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown sources: %s", strings.Join(unknown, ", "))
	}

	// NOAA is the only upstream requiring a credential; validate it only
	// when that source is enabled
	for _, src := range config.Sources {
		if src == "noaa_climate" && config.NOAAToken == "" {
			return nil, fmt.Errorf("missing required configuration: NOAA_TOKEN")
		}
	}

	// Validate the backfill window when present
	if (config.HistoryStart == "") != (config.HistoryEnd == "") {
		return nil, fmt.Errorf("history_start and history_end must be set together")
	}
	if config.HistoryStart != "" {
		start, end, err := parseWindow(config.HistoryStart, config.HistoryEnd)
		if err != nil {
			return nil, err
		}
		if start.After(end) {
			return nil, fmt.Errorf("history_start %s is after history_end %s", config.HistoryStart, config.HistoryEnd)
		}
	}

	return config, nil
}

// HistoryRange returns the configured backfill window. The third result
// reports whether a window is configured at all. Load has already
// validated the dates.
func (c *Config) HistoryRange() (time.Time, time.Time, bool) {
	if c.HistoryStart == "" {
		return time.Time{}, time.Time{}, false
	}
	start, end, _ := parseWindow(c.HistoryStart, c.HistoryEnd)
	return start, end, true
}

func parseWindow(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid history_start %q: %w", startStr, err)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid history_end %q: %w", endStr, err)
	}
	return start, end, nil
}
