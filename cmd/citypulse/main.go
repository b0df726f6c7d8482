package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	httpapi "github.com/citypulse/citypulse/internal/api/http"
	"github.com/citypulse/citypulse/internal/cache"
	"github.com/citypulse/citypulse/internal/city"
	"github.com/citypulse/citypulse/internal/city/providers"
	"github.com/citypulse/citypulse/internal/config"
	"github.com/citypulse/citypulse/internal/geo"
	"github.com/citypulse/citypulse/internal/scheduler"
	"github.com/citypulse/citypulse/internal/view"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	// Shared HTTP client for outbound provider and geocoding calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Durable snapshot cache with the configured validity window.
	store := cache.NewStore(cfg.CachePath, cfg.CacheTTL)

	resolver := geo.NewResolver(httpClient, cfg.GoogleGeocoderKey)
	synth := city.NewGenerator(time.Now().UnixNano())

	owClient := providers.NewClient(httpClient, cfg.OpenWeatherAPIKey)
	provs := city.Providers{
		Weather:   providers.NewWeatherAdapter(owClient, synth, log),
		Pollution: providers.NewPollutionAdapter(owClient, resolver, synth, log),
		AQI:       providers.NewAQIAdapter(owClient, resolver, synth, log),
	}

	service := city.NewService(store, resolver, provs, synth, city.ServiceOptions{
		MinDisplayDelay: cfg.MinDisplayDelay,
		Logger:          log,
	})

	// The dashboard preselects New York shortly after startup; do the
	// same here so the cache is primed before the first request.
	presenter := view.NewLogPresenter(log)
	go func() {
		time.Sleep(1 * time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, _, err := service.SelectCity(ctx, "New York", presenter); err != nil {
			log.Warn().Err(err).Msg("initial selection failed")
		}
	}()

	sched := scheduler.New(cfg.RefreshCities, cfg.RefreshInterval, service, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "citypulse",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}
