package city

import (
	"context"

	"github.com/citypulse/citypulse/internal/geo"
)

// WeatherProvider fetches current conditions and a multi-day forecast.
type WeatherProvider interface {
	FetchWeather(ctx context.Context, cityName string) (*Weather, error)
}

// PollutionProvider fetches current pollutant concentrations and 24h history.
type PollutionProvider interface {
	FetchPollution(ctx context.Context, cityName string) (*Pollution, error)
}

// AQIProvider fetches the air quality index and 7-day history.
type AQIProvider interface {
	FetchAQI(ctx context.Context, cityName string) (*AQI, error)
}

// Providers bundles the three independent adapters consumed by the
// orchestrator. Each adapter either returns a fully populated object
// or an error; there is no partial result.
type Providers struct {
	Weather   WeatherProvider
	Pollution PollutionProvider
	AQI       AQIProvider
}

// Store is the contract the snapshot cache must satisfy. Get returns
// false for missing or expired entries; Set overwrites one city's
// entry with a fresh timestamp.
type Store interface {
	Get(cityName string) (Snapshot, bool)
	Set(cityName string, snap Snapshot) error
}

// Resolver resolves a free-text city name to coordinates.
type Resolver interface {
	Resolve(ctx context.Context, cityName string) (geo.Point, error)
}

// Presenter receives view callbacks during a selection. Implementations
// own any map/chart handles; the orchestrator never touches the view
// beyond this interface.
type Presenter interface {
	// CenterMaps recenters the overview and traffic maps on the city.
	CenterMaps(cityName string, loc geo.Point)
	// ShowCity refreshes the selected-city labels on every page.
	ShowCity(cityName string)
	// Loading toggles the busy indicator.
	Loading(active bool)
	// Render hands the final snapshot to the view.
	Render(cityName string, snap Snapshot)
	// SelectionFailed reports a blocking location-resolution failure.
	SelectionFailed(cityName string, err error)
}

type nopPresenter struct{}

func (nopPresenter) CenterMaps(string, geo.Point)  {}
func (nopPresenter) ShowCity(string)               {}
func (nopPresenter) Loading(bool)                  {}
func (nopPresenter) Render(string, Snapshot)       {}
func (nopPresenter) SelectionFailed(string, error) {}
