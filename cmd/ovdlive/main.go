package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asturlabs/ovdlive/internal/api"
	"github.com/asturlabs/ovdlive/internal/config"
	"github.com/asturlabs/ovdlive/internal/feed"
	"github.com/asturlabs/ovdlive/internal/track"
	"github.com/asturlabs/ovdlive/internal/weather"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting live tracker",
		logger.String("airport", cfg.Station.AirportIATA),
		logger.Float64("lat", cfg.Station.Latitude),
		logger.Float64("lon", cfg.Station.Longitude))

	if cfg.Schedule.APIKey == "" {
		log.Warn("No schedule feed API key configured; flight board will stay empty")
	}

	// Core
	normalizer := track.NewNormalizer(cfg.Station, cfg.Airlines, log)
	matcher := track.NewTieredMatcher()
	trails := track.NewTrailStore(cfg.Tracking.TrailMaxPoints, cfg.Tracking.EvictAfterMissedTicks, log)
	engine := track.NewEngine(normalizer, matcher, trails, log)

	// Feeds
	liveClient := feed.NewLiveClient(cfg.LiveFeed, cfg.Station, log)
	scheduleClient := feed.NewScheduleClient(cfg.Schedule, cfg.Station, log)
	scheduler := track.NewScheduler(liveClient, scheduleClient, engine,
		cfg.LivePollInterval(), cfg.SchedulePollInterval(), log)

	// Weather
	weatherService := weather.NewService(cfg.Weather, cfg.Station, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		log.Error("Failed to start scheduler", logger.Error(err))
		os.Exit(1)
	}
	if err := weatherService.Start(ctx); err != nil {
		log.Error("Failed to start weather service", logger.Error(err))
		os.Exit(1)
	}

	// HTTP server
	router := api.NewRouter(engine, weatherService, cfg, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutting down", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server failed", logger.Error(err))
	}

	scheduler.Stop()
	weatherService.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", logger.Error(err))
	}

	log.Info("Stopped")
}
