package providers

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/citypulse/citypulse/internal/city"
	"github.com/citypulse/citypulse/internal/geo"
)

// OpenWeatherMap reports air quality as an ordinal level 1..5. The
// dashboard displays the US 0-500 scale, so levels are remapped onto
// fixed anchor values with a parallel status label.
var (
	aqiScale    = [...]int{0, 50, 100, 150, 200, 300}
	aqiStatuses = [...]string{"Good", "Fair", "Moderate", "Poor", "Very Poor"}
)

// remapLevel converts an ordinal air quality level to a US-scale value
// and status label. Out-of-range levels default to 0/"Good".
func remapLevel(level int) (int, string) {
	if level < 1 || level > 5 {
		return 0, "Good"
	}
	return aqiScale[level-1], aqiStatuses[level-1]
}

// AQIAdapter fetches the air quality index plus 7 days of history.
type AQIAdapter struct {
	client   *Client
	resolver city.Resolver
	synth    *city.Generator
	log      zerolog.Logger
}

// NewAQIAdapter creates an AQIAdapter. Location resolution happens
// inline, same as the pollution adapter.
func NewAQIAdapter(client *Client, resolver city.Resolver, synth *city.Generator, logger zerolog.Logger) *AQIAdapter {
	return &AQIAdapter{
		client:   client,
		resolver: resolver,
		synth:    synth,
		log:      logger.With().Str("adapter", "aqi").Logger(),
	}
}

// FetchAQI returns a fully populated AQI object or an error. History
// failures degrade to synthetic history.
func (a *AQIAdapter) FetchAQI(ctx context.Context, cityName string) (*city.AQI, error) {
	loc, err := a.resolver.Resolve(ctx, cityName)
	if err != nil {
		return nil, fmt.Errorf("resolve location: %w", err)
	}

	q := coordQuery(loc)
	var payload airPollutionResponse
	if err := a.client.getJSON(ctx, "/air_pollution", q, &payload); err != nil {
		return nil, err
	}
	if len(payload.List) == 0 || payload.List[0].Main == nil || payload.List[0].Components == nil {
		return nil, fmt.Errorf("air quality response missing required fields")
	}
	sample := payload.List[0]
	value, status := remapLevel(sample.Main.AQI)

	history, ok := a.fetchHistory(ctx, loc)
	if !ok {
		a.log.Warn().Str("city", cityName).Msg("no aqi history, substituting synthetic data")
		history = a.synth.AQIHistory()
	}

	return &city.AQI{
		AQI:     value,
		Status:  status,
		PM25:    int(math.Round(sample.Components.PM25)),
		PM10:    int(math.Round(sample.Components.PM10)),
		NO2:     int(math.Round(sample.Components.NO2)),
		O3:      int(math.Round(sample.Components.O3)),
		History: history,
		Source:  city.SourceLive,
	}, nil
}

// fetchHistory requests 7 days of samples and keeps the first sample
// seen for each calendar day, labeled by short date.
func (a *AQIAdapter) fetchHistory(ctx context.Context, loc geo.Point) (city.AQIHistory, bool) {
	now := time.Now().Unix()

	q := coordQuery(loc)
	q.Set("start", strconv.FormatInt(now-7*86400, 10))
	q.Set("end", strconv.FormatInt(now, 10))

	var payload airPollutionResponse
	if err := a.client.getJSON(ctx, "/air_pollution/history", q, &payload); err != nil {
		a.log.Warn().Err(err).Msg("aqi history fetch failed")
		return city.AQIHistory{}, false
	}

	var history city.AQIHistory
	seen := make(map[string]bool)
	for _, item := range payload.List {
		if item.Main == nil {
			continue
		}
		label := time.Unix(item.Dt, 0).Format("Jan 2")
		if seen[label] {
			continue
		}
		seen[label] = true

		value, _ := remapLevel(item.Main.AQI)
		history.Labels = append(history.Labels, label)
		history.AQI = append(history.AQI, value)
	}

	if len(history.Labels) == 0 {
		return city.AQIHistory{}, false
	}
	return history, true
}
