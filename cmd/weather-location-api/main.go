package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/i474232898/weather-location-api/internal/api/http"
	"github.com/i474232898/weather-location-api/internal/config"
	"github.com/i474232898/weather-location-api/internal/logger"
	"github.com/i474232898/weather-location-api/internal/scheduler"
	"github.com/i474232898/weather-location-api/internal/store"
	"github.com/i474232898/weather-location-api/internal/weather"
)

func main() {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config/config.env"
	}

	// Load configuration.
	envErr := config.LoadEnvFile(configFile)
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", os.Getenv("APP_ENV")).Fatalf("failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel, cfg.Env)
	if envErr != nil {
		log.Infof("continuing without env file: %v", envErr)
	}

	// Persistence gateway. A failed initial connection ends the process.
	var (
		st         weather.Store
		closeStore func(context.Context) error
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warnf("using in-memory store, data is lost on exit")
		st = store.NewMemoryStore()
	default:
		mongoStore, err := store.Connect(context.Background(), cfg.DatabaseURI, cfg.DatabaseName, cfg.DBConnectTimeout, log)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		st = mongoStore
		closeStore = mongoStore.Close
	}

	service := weather.NewService(st, log)

	// Periodic orphan weather audit.
	sched := scheduler.New(service, cfg.OrphanAuditInterval, log)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.Options{
		AppName: "weather-location-api",
		Log:     log,
	})
	httpapi.RegisterRoutes(app, service, httpapi.RouteConfig{
		Prefix:         cfg.APIPrefix,
		RequestTimeout: cfg.RequestTimeout,
		Log:            log,
	})

	go func() {
		log.Infof("The server is running on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}
	if closeStore != nil {
		if err := closeStore(shutdownCtx); err != nil {
			log.Errorf("error closing database: %v", err)
		}
	}
	log.Info("shutdown complete")
}
