package providers

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/citypulse/citypulse/internal/city"
	"github.com/citypulse/citypulse/internal/common"
)

// WeatherAdapter fetches current conditions and a 5-day forecast.
type WeatherAdapter struct {
	client *Client
	synth  *city.Generator
	log    zerolog.Logger
}

// NewWeatherAdapter creates a WeatherAdapter. An empty forecast is
// substituted from the synthetic generator while current conditions
// stay real.
func NewWeatherAdapter(client *Client, synth *city.Generator, logger zerolog.Logger) *WeatherAdapter {
	return &WeatherAdapter{
		client: client,
		synth:  synth,
		log:    logger.With().Str("adapter", "weather").Logger(),
	}
}

// FetchWeather returns a fully populated weather object or an error,
// never a partial result.
func (a *WeatherAdapter) FetchWeather(ctx context.Context, cityName string) (*city.Weather, error) {
	q := url.Values{}
	q.Set("q", cityName)
	q.Set("units", "metric")

	var current struct {
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Main *struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
			Pressure float64 `json:"pressure"`
		} `json:"main"`
		Wind *struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Visibility float64 `json:"visibility"`
	}
	if err := a.client.getJSON(ctx, "/weather", q, &current); err != nil {
		return nil, err
	}
	if len(current.Weather) == 0 || current.Main == nil || current.Wind == nil {
		return nil, fmt.Errorf("weather response missing required fields")
	}

	forecast := a.fetchForecast(ctx, cityName)
	if len(forecast) == 0 {
		a.log.Warn().Str("city", cityName).Msg("empty forecast, substituting synthetic data")
		forecast = a.synth.Forecast()
	}

	return &city.Weather{
		Temperature: int(math.Round(current.Main.Temp)),
		Description: current.Weather[0].Description,
		Condition:   mapCondition(current.Weather[0].Main),
		Humidity:    int(math.Round(current.Main.Humidity)),
		WindSpeed:   int(math.Round(current.Wind.Speed * 3.6)), // m/s to km/h
		Visibility:  math.Round(current.Visibility/1000*10) / 10,
		Pressure:    int(math.Round(current.Main.Pressure)),
		Forecast:    forecast,
		Source:      city.SourceLive,
	}, nil
}

// fetchForecast builds one entry per calendar day from the 3-hourly
// forecast list, preferring the point at local noon, capped at 5 days.
// Failures yield an empty slice; the caller substitutes synthetic data.
func (a *WeatherAdapter) fetchForecast(ctx context.Context, cityName string) []city.ForecastDay {
	q := url.Values{}
	q.Set("q", cityName)
	q.Set("units", "metric")

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main *struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Weather []struct {
				Main string `json:"main"`
			} `json:"weather"`
		} `json:"list"`
	}
	if err := a.client.getJSON(ctx, "/forecast", q, &payload); err != nil {
		a.log.Warn().Str("city", cityName).Err(err).Msg("forecast fetch failed")
		return nil
	}

	type bucket struct {
		day    city.ForecastDay
		atNoon bool
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, item := range payload.List {
		if item.Main == nil || len(item.Weather) == 0 {
			continue
		}
		t := time.Unix(item.Dt, 0)
		key := t.Format("2006-01-02")
		entry := city.ForecastDay{
			Date:      t.Format("Mon"),
			Temp:      int(math.Round(item.Main.Temp)),
			Condition: mapCondition(item.Weather[0].Main),
		}

		b, ok := buckets[key]
		if !ok {
			buckets[key] = &bucket{day: entry, atNoon: t.Hour() == 12}
			order = append(order, key)
			continue
		}
		if !b.atNoon && t.Hour() == 12 {
			b.day = entry
			b.atNoon = true
		}
	}

	forecast := make([]city.ForecastDay, 0, 5)
	for _, key := range order {
		if len(forecast) >= 5 {
			break
		}
		forecast = append(forecast, buckets[key].day)
	}
	return forecast
}

// mapCondition normalizes an OpenWeatherMap condition group onto the
// dashboard's condition set.
func mapCondition(main string) city.Condition {
	m := strings.ToLower(main)
	switch {
	case common.HasAny(m, "cloud"):
		return city.ConditionCloudy
	case common.HasAny(m, "rain", "drizzle"):
		return city.ConditionRainy
	case common.HasAny(m, "storm", "thunder"):
		return city.ConditionStormy
	case common.HasAny(m, "snow"):
		return city.ConditionSnowy
	default:
		return city.ConditionClear
	}
}
