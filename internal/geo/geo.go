// Package geo resolves free-text city names to coordinates, first from
// a static table of well-known cities, then via external geocoding.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kelvins/geocoder"
)

// ErrNotFound is returned when no coordinates can be resolved for a city.
var ErrNotFound = errors.New("city not found")

// Point is a WGS84 coordinate pair in float degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

var knownCities = map[string]Point{
	"New York":    {Lat: 40.7128, Lng: -74.0060},
	"London":      {Lat: 51.5074, Lng: -0.1278},
	"Tokyo":       {Lat: 35.6762, Lng: 139.6503},
	"Paris":       {Lat: 48.8566, Lng: 2.3522},
	"Mumbai":      {Lat: 19.0760, Lng: 72.8777},
	"Los Angeles": {Lat: 34.0522, Lng: -118.2437},
	"Berlin":      {Lat: 52.5200, Lng: 13.4050},
	"Sydney":      {Lat: -33.8688, Lng: 151.2093},
	"Toronto":     {Lat: 43.6532, Lng: -79.3832},
	"Singapore":   {Lat: 1.3521, Lng: 103.8198},
}

// LookupKnown returns the static coordinates for a well-known city.
// Matching is exact and case-sensitive.
func LookupKnown(cityName string) (Point, bool) {
	p, ok := knownCities[cityName]
	return p, ok
}

// KnownCities returns a copy of the static city table.
func KnownCities() map[string]Point {
	out := make(map[string]Point, len(knownCities))
	for name, p := range knownCities {
		out[name] = p
	}
	return out
}

// Resolver resolves city names that are not in the static table. It
// issues a single Nominatim lookup and, when a Google API key is
// configured, falls back to Google geocoding. Results are not cached
// and requests are not retried.
type Resolver struct {
	client    *http.Client
	baseURL   string
	googleKey string
}

// NewResolver creates a Resolver. googleAPIKey may be empty, in which
// case the Google fallback tier is disabled.
func NewResolver(client *http.Client, googleAPIKey string) *Resolver {
	if googleAPIKey != "" {
		geocoder.ApiKey = googleAPIKey
	}
	return &Resolver{
		client:    client,
		baseURL:   "https://nominatim.openstreetmap.org/search",
		googleKey: googleAPIKey,
	}
}

// Resolve returns coordinates for cityName. The static table is
// consulted first with no network call.
func (r *Resolver) Resolve(ctx context.Context, cityName string) (Point, error) {
	if p, ok := LookupKnown(cityName); ok {
		return p, nil
	}

	p, err := r.nominatim(ctx, cityName)
	if err == nil {
		return p, nil
	}

	if r.googleKey != "" {
		loc, gerr := geocoder.Geocoding(geocoder.Address{City: cityName})
		if gerr == nil {
			return Point{Lat: loc.Latitude, Lng: loc.Longitude}, nil
		}
	}

	return Point{}, err
}

func (r *Resolver) nominatim(ctx context.Context, cityName string) (Point, error) {
	values := url.Values{}
	values.Set("format", "json")
	values.Set("q", cityName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return Point{}, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Point{}, fmt.Errorf("geocoding status %d", resp.StatusCode)
	}

	// Nominatim returns lat/lon as strings.
	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Point{}, err
	}
	if len(results) == 0 {
		return Point{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, err)
	}

	return Point{Lat: lat, Lng: lng}, nil
}
