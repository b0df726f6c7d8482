// Package config loads application configuration from the environment,
// with optional .env support.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	// OpenWeatherAPIKey authorizes the weather, pollution and AQI
	// adapters. When empty, every adapter call fails and selections
	// serve synthetic data.
	OpenWeatherAPIKey string `env:"OPENWEATHER_API_KEY"`

	// GoogleGeocoderKey enables the Google geocoding fallback tier.
	GoogleGeocoderKey string `env:"GOOGLE_GEOCODER_API_KEY"`

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	// Snapshot cache location and validity window.
	CachePath string        `env:"CACHE_PATH" envDefault:"citypulse-cache.json"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// MinDisplayDelay is the fixed minimum time the loading indicator
	// stays visible during a selection.
	MinDisplayDelay time.Duration `env:"MIN_DISPLAY_DELAY" envDefault:"1500ms"`

	// Cities refreshed in the background to keep the cache warm.
	RefreshCities   []string      `env:"REFRESH_CITIES" envSeparator:","`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"15m"`

	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment. A missing .env file
// is not an error.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("CACHE_TTL must be positive")
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("HTTP_TIMEOUT must be positive")
	}

	return cfg, nil
}
