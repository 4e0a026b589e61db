package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"storatrack-backend/config"
	"storatrack-backend/internal/api"
	"storatrack-backend/internal/billing"
	"storatrack-backend/internal/closing"
	"storatrack-backend/internal/costing"
	"storatrack-backend/internal/db"
	"storatrack-backend/internal/logging"
	"storatrack-backend/internal/store"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)
	log := logging.WithService(logger, "storatrackd")
	log.WithField("path", configPath).Info("configuration loaded")

	gormDB, err := db.Init(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	log.WithField("driver", cfg.Database.Driver).Info("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	calc := billing.NewCalculator(billing.SystemConfig{
		Location: cfg.Billing.Location,
		Logger:   log.WithField("component", "calculator"),
	})
	costs := costing.NewService(appStore, calc, log.WithField("component", "costing"), time.Now)

	scheduler := closing.NewScheduler(cfg.Closing, costs, costs, cfg.Billing.Location, log.WithField("component", "closing"))
	go func() {
		if err := scheduler.Run(ctx); err != nil {
			log.WithError(err).Error("closing scheduler stopped")
		}
	}()

	router := api.NewRouter(api.NewHandler(costs, cfg.Billing.MaxMonthsBack), cfg.Server, log)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server ListenAndServe")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	log.Info("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("HTTP server Shutdown")
	}

	log.Info("server gracefully stopped")
}
