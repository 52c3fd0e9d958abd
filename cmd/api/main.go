package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medgrid/bedfinder-backend/api/routes"
	"github.com/medgrid/bedfinder-backend/internal/auth"
	"github.com/medgrid/bedfinder-backend/internal/bookings"
	"github.com/medgrid/bedfinder-backend/internal/directory"
	"github.com/medgrid/bedfinder-backend/internal/hospitals"
	"github.com/medgrid/bedfinder-backend/internal/inventory"
	"github.com/medgrid/bedfinder-backend/internal/store"
	"github.com/medgrid/bedfinder-backend/pkg/auth/session"
	"github.com/medgrid/bedfinder-backend/pkg/config"
	"github.com/medgrid/bedfinder-backend/pkg/logger"
	"github.com/medgrid/bedfinder-backend/pkg/metrics"
	"github.com/medgrid/bedfinder-backend/pkg/provider"
	"github.com/medgrid/bedfinder-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	memory := store.NewMemory()
	feed := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, provider.WithTimeout(cfg.Provider.Timeout))

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)
	syncMetrics := metrics.NewSyncMetrics(registry)

	authService, err := auth.NewService(memory, memory, sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	hospitalService, err := hospitals.NewService(memory, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create hospital service", err)
		os.Exit(1)
	}
	inventoryService, err := inventory.NewService(memory)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	bookingService, err := bookings.NewService(memory, bookingMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create booking service", err)
		os.Exit(1)
	}
	directoryService, err := directory.NewService(memory, feed, logg, syncMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create directory service", err)
		os.Exit(1)
	}

	if !cfg.App.IsProd() {
		if err := authService.SeedAdmin(context.Background(), cfg.Admin); err != nil {
			logg.Error(context.Background(), "failed to seed admin account", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Cfg:              cfg,
			Logger:           logg,
			Redis:            redisClient,
			Feed:             feed,
			Sessions:         sessionManager,
			Registry:         registry,
			AuthService:      authService,
			HospitalService:  hospitalService,
			InventoryService: inventoryService,
			BookingService:   bookingService,
			DirectoryService: directoryService,
		}),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
