package city

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/citypulse/citypulse/internal/geo"
)

// DefaultMinDisplayDelay keeps the busy indicator visible long enough
// to avoid visually jarring instant updates.
const DefaultMinDisplayDelay = 1500 * time.Millisecond

// ServiceOptions tunes orchestrator behaviour.
type ServiceOptions struct {
	// MinDisplayDelay is the fixed minimum time before the loading
	// indicator hides and the snapshot renders. Zero keeps the default.
	MinDisplayDelay time.Duration
	Logger          zerolog.Logger
}

// Service orchestrates a city selection: resolve location, consult the
// cache, fetch missing pieces with synthetic fallback, merge, persist
// and hand the snapshot to the presenter.
type Service struct {
	store     Store
	resolver  Resolver
	providers Providers
	synth     *Generator
	minDelay  time.Duration
	log       zerolog.Logger

	// tokens identify the newest selection per city; a superseded
	// selection skips cache writes and rendering. Selections of
	// different cities never supersede each other.
	mu     sync.Mutex
	tokens map[string]uint64
}

// NewService creates a Service.
func NewService(store Store, resolver Resolver, providers Providers, synth *Generator, opts ServiceOptions) *Service {
	delay := opts.MinDisplayDelay
	if delay <= 0 {
		delay = DefaultMinDisplayDelay
	}
	return &Service{
		store:     store,
		resolver:  resolver,
		providers: providers,
		synth:     synth,
		minDelay:  delay,
		log:       opts.Logger,
		tokens:    make(map[string]uint64),
	}
}

// nextToken registers a new selection for cityName and returns its
// token. Any selection of the same city still in flight is superseded.
func (s *Service) nextToken(cityName string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[cityName]++
	return s.tokens[cityName]
}

func (s *Service) currentToken(cityName string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[cityName]
}

// SelectCity runs one full selection for cityName. The presenter may
// be nil for headless callers like the refresh scheduler and the HTTP
// API. Only total location-resolution failure returns an error; every
// provider failure degrades silently to synthetic data.
func (s *Service) SelectCity(ctx context.Context, cityName string, p Presenter) (Snapshot, geo.Point, error) {
	if p == nil {
		p = nopPresenter{}
	}

	token := s.nextToken(cityName)
	log := s.log.With().
		Str("selection", uuid.NewString()).
		Str("city", cityName).
		Logger()

	// Location phase: known cities center immediately with no network
	// call; everything else goes through the resolver. Failure aborts
	// before any cache interaction.
	loc, known := geo.LookupKnown(cityName)
	if !known {
		pt, err := s.resolver.Resolve(ctx, cityName)
		if err != nil {
			log.Warn().Err(err).Msg("location resolution failed")
			p.SelectionFailed(cityName, err)
			return Snapshot{}, geo.Point{}, fmt.Errorf("resolve %q: %w", cityName, err)
		}
		loc = pt
	}
	p.CenterMaps(cityName, loc)

	// Display refresh happens before any data is available.
	p.ShowCity(cityName)

	p.Loading(true)
	defer p.Loading(false)

	// The minimum-delay gate and data resolution run concurrently;
	// rendering waits for both.
	gate := time.NewTimer(s.minDelay)
	defer gate.Stop()

	dataCh := make(chan Snapshot, 1)
	go func() {
		dataCh <- s.resolveData(ctx, cityName, loc, token, log)
	}()

	var snap Snapshot
	select {
	case snap = <-dataCh:
	case <-ctx.Done():
		return Snapshot{}, loc, ctx.Err()
	}
	select {
	case <-gate.C:
	case <-ctx.Done():
		return Snapshot{}, loc, ctx.Err()
	}

	if s.currentToken(cityName) == token {
		p.Render(cityName, snap)
	} else {
		log.Debug().Msg("selection superseded, skipping render")
	}
	return snap, loc, nil
}

// resolveData produces the final merged snapshot for a selection.
// Traffic is regenerated fresh every time and never drives fetch
// decisions; the weather/pollution/aqi sections come from the cache
// when fresh, otherwise from their adapters with synthetic fallback.
func (s *Service) resolveData(ctx context.Context, cityName string, loc geo.Point, token uint64, log zerolog.Logger) Snapshot {
	traffic := s.synth.Traffic(loc)

	cached, ok := s.store.Get(cityName)
	if !ok {
		snap := s.fetchAll(ctx, cityName, log)
		snap.Traffic = traffic
		s.persist(cityName, snap, token, log)
		return snap
	}

	// Valid cache entry; patch any sections missing from older partial
	// writes, re-persisting after each successful patch.
	snap := cached
	if snap.Weather == nil {
		snap.Weather = s.fetchWeather(ctx, cityName, log)
		s.persist(cityName, snap, token, log)
	}
	if snap.Pollution == nil {
		snap.Pollution = s.fetchPollution(ctx, cityName, log)
		s.persist(cityName, snap, token, log)
	}
	if snap.AQI == nil {
		snap.AQI = s.fetchAQI(ctx, cityName, log)
		s.persist(cityName, snap, token, log)
	}
	// Fresh traffic replaces whatever the entry held; it only warrants
	// a write when the entry had none at all.
	wasMissing := snap.Traffic == nil
	snap.Traffic = traffic
	if wasMissing {
		s.persist(cityName, snap, token, log)
	}
	return snap
}

// fetchAll fetches the three provider sections concurrently. The
// fetches are independent; completion order does not matter since each
// targets a disjoint field.
func (s *Service) fetchAll(ctx context.Context, cityName string, log zerolog.Logger) Snapshot {
	var snap Snapshot
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		snap.Weather = s.fetchWeather(ctx, cityName, log)
	}()
	go func() {
		defer wg.Done()
		snap.Pollution = s.fetchPollution(ctx, cityName, log)
	}()
	go func() {
		defer wg.Done()
		snap.AQI = s.fetchAQI(ctx, cityName, log)
	}()
	wg.Wait()

	return snap
}

func (s *Service) fetchWeather(ctx context.Context, cityName string, log zerolog.Logger) *Weather {
	w, err := s.providers.Weather.FetchWeather(ctx, cityName)
	if err != nil {
		log.Warn().Err(err).Msg("weather fetch failed, substituting synthetic data")
		return s.synth.Weather()
	}
	return w
}

func (s *Service) fetchPollution(ctx context.Context, cityName string, log zerolog.Logger) *Pollution {
	p, err := s.providers.Pollution.FetchPollution(ctx, cityName)
	if err != nil {
		log.Warn().Err(err).Msg("pollution fetch failed, substituting synthetic data")
		return s.synth.Pollution()
	}
	return p
}

func (s *Service) fetchAQI(ctx context.Context, cityName string, log zerolog.Logger) *AQI {
	a, err := s.providers.AQI.FetchAQI(ctx, cityName)
	if err != nil {
		log.Warn().Err(err).Msg("aqi fetch failed, substituting synthetic data")
		return s.synth.AQI()
	}
	return a
}

// persist writes the snapshot unless this selection has been
// superseded by a newer one.
func (s *Service) persist(cityName string, snap Snapshot, token uint64, log zerolog.Logger) {
	if s.currentToken(cityName) != token {
		log.Debug().Msg("selection superseded, skipping cache write")
		return
	}
	if err := s.store.Set(cityName, snap); err != nil {
		log.Error().Err(err).Msg("cache write failed")
	}
}
