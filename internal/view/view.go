// Package view provides Presenter implementations for the selection
// flow. The real dashboard UI lives outside this module; these stand
// in for it on the server side.
package view

import (
	"github.com/rs/zerolog"

	"github.com/citypulse/citypulse/internal/city"
	"github.com/citypulse/citypulse/internal/geo"
)

// LogPresenter reports selection lifecycle events through structured
// logging. It owns no UI handles; each callback replaces the previous
// state for the same city.
type LogPresenter struct {
	log zerolog.Logger
}

func NewLogPresenter(logger zerolog.Logger) *LogPresenter {
	return &LogPresenter{log: logger.With().Str("component", "view").Logger()}
}

func (p *LogPresenter) CenterMaps(cityName string, loc geo.Point) {
	p.log.Info().Str("city", cityName).Float64("lat", loc.Lat).Float64("lng", loc.Lng).Msg("maps centered")
}

func (p *LogPresenter) ShowCity(cityName string) {
	p.log.Debug().Str("city", cityName).Msg("city labels updated")
}

func (p *LogPresenter) Loading(active bool) {
	p.log.Debug().Bool("active", active).Msg("loading indicator")
}

func (p *LogPresenter) Render(cityName string, snap city.Snapshot) {
	e := p.log.Info().Str("city", cityName)
	if snap.Weather != nil {
		e = e.Str("weather", string(snap.Weather.Source))
	}
	if snap.Pollution != nil {
		e = e.Str("pollution", string(snap.Pollution.Source))
	}
	if snap.AQI != nil {
		e = e.Str("aqi", string(snap.AQI.Source))
	}
	e.Msg("snapshot rendered")
}

func (p *LogPresenter) SelectionFailed(cityName string, err error) {
	p.log.Warn().Str("city", cityName).Err(err).Msg("city not found")
}
