package providers

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/citypulse/citypulse/internal/city"
	"github.com/citypulse/citypulse/internal/geo"
)

// airSample is one entry of the OpenWeatherMap air pollution list,
// shared by the pollution and AQI adapters.
type airSample struct {
	Dt   int64 `json:"dt"`
	Main *struct {
		AQI int `json:"aqi"`
	} `json:"main"`
	Components *struct {
		PM25 float64 `json:"pm2_5"`
		PM10 float64 `json:"pm10"`
		NO2  float64 `json:"no2"`
		O3   float64 `json:"o3"`
	} `json:"components"`
}

type airPollutionResponse struct {
	List []airSample `json:"list"`
}

// PollutionAdapter fetches current pollutant concentrations plus 24
// hours of hourly history.
type PollutionAdapter struct {
	client   *Client
	resolver city.Resolver
	synth    *city.Generator
	log      zerolog.Logger
}

// NewPollutionAdapter creates a PollutionAdapter. The resolver is
// consulted inline; an unresolvable city fails the whole call.
func NewPollutionAdapter(client *Client, resolver city.Resolver, synth *city.Generator, logger zerolog.Logger) *PollutionAdapter {
	return &PollutionAdapter{
		client:   client,
		resolver: resolver,
		synth:    synth,
		log:      logger.With().Str("adapter", "pollution").Logger(),
	}
}

// FetchPollution returns a fully populated pollution object or an
// error. History failures degrade to synthetic history while the real
// current values are kept.
func (a *PollutionAdapter) FetchPollution(ctx context.Context, cityName string) (*city.Pollution, error) {
	loc, err := a.resolver.Resolve(ctx, cityName)
	if err != nil {
		return nil, fmt.Errorf("resolve location: %w", err)
	}

	q := coordQuery(loc)
	var payload airPollutionResponse
	if err := a.client.getJSON(ctx, "/air_pollution", q, &payload); err != nil {
		return nil, err
	}
	if len(payload.List) == 0 || payload.List[0].Components == nil {
		return nil, fmt.Errorf("pollution response missing required fields")
	}
	d := payload.List[0].Components

	history, ok := a.fetchHistory(ctx, loc)
	if !ok {
		a.log.Warn().Str("city", cityName).Msg("no pollution history, substituting synthetic data")
		history = a.synth.PollutionHistory()
	}

	return &city.Pollution{
		PM25:    int(math.Round(d.PM25)),
		PM10:    int(math.Round(d.PM10)),
		NO2:     int(math.Round(d.NO2)),
		O3:      int(math.Round(d.O3)),
		History: history,
		Source:  city.SourceLive,
	}, nil
}

// fetchHistory requests the prior 24 hours of hourly samples, labeled
// by hour of day.
func (a *PollutionAdapter) fetchHistory(ctx context.Context, loc geo.Point) (city.PollutionHistory, bool) {
	now := time.Now().Unix()

	q := coordQuery(loc)
	q.Set("start", strconv.FormatInt(now-86400, 10))
	q.Set("end", strconv.FormatInt(now, 10))

	var payload airPollutionResponse
	if err := a.client.getJSON(ctx, "/air_pollution/history", q, &payload); err != nil {
		a.log.Warn().Err(err).Msg("pollution history fetch failed")
		return city.PollutionHistory{}, false
	}

	var history city.PollutionHistory
	for _, item := range payload.List {
		if item.Components == nil {
			continue
		}
		hour := time.Unix(item.Dt, 0).Hour()
		history.Labels = append(history.Labels, strconv.Itoa(hour)+":00")
		history.PM25 = append(history.PM25, int(math.Round(item.Components.PM25)))
		history.PM10 = append(history.PM10, int(math.Round(item.Components.PM10)))
		history.NO2 = append(history.NO2, int(math.Round(item.Components.NO2)))
	}

	if len(history.Labels) == 0 {
		return city.PollutionHistory{}, false
	}
	return history, true
}

func coordQuery(loc geo.Point) url.Values {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", loc.Lat))
	q.Set("lon", fmt.Sprintf("%f", loc.Lng))
	return q
}
