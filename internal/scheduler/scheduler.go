package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/citypulse/citypulse/internal/city"
)

// Scheduler periodically re-selects configured cities so their cache
// entries stay warm. Selections run headless, without a presenter.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *city.Service
	cities    []string
	interval  time.Duration
	log       zerolog.Logger
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, service *city.Service, logger zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		cities:    cities,
		interval:  interval,
		log:       logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.log.Info().Msg("no refresh cities configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.log.Info().Msg("running cache refresh job")

		var wg sync.WaitGroup
		for _, name := range s.cities {
			name := name
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if _, _, err := s.service.SelectCity(ctx, name, nil); err != nil {
					s.log.Warn().Str("city", name).Err(err).Msg("refresh failed")
				}
			}()
		}
		wg.Wait()
		s.log.Info().Msg("completed cache refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
