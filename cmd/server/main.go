package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"adintel/internal/delivery"
	"adintel/internal/domain"
	"adintel/internal/infrastructure"
	"adintel/internal/usecase"
	"adintel/pkg/config"
	"adintel/pkg/logger"
	"adintel/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	m := metrics.New()

	reportDefaults, err := config.LoadReportDefaults(cfg.Report.DefaultsPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load report defaults")
	}
	defaults, issues := usecase.BuildDefaults(reportDefaults)
	if len(issues) > 0 {
		log.WithFields(map[string]any{
			"path":   cfg.Report.DefaultsPath,
			"issues": issues,
		}).Warn("Report defaults contain invalid entries")
	}

	client := infrastructure.NewHTTPClient(infrastructure.HTTPClientOptions{
		AdsURL:            cfg.External.AdsAPIURL,
		AdsToken:          cfg.External.AdsAPIToken,
		ClientID:          cfg.External.AdsClientID,
		ConfigStoreURL:    cfg.External.ConfigStoreURL,
		ConfigStoreSecret: cfg.External.ConfigStoreSecret,
		Timeout:           cfg.Report.RequestTimeout,
		RateLimit:         cfg.Report.RateLimitPerSecond,
	}, log, m)

	// without a store URL saved configs live in the cache only
	var store domain.ConfigStore
	if cfg.External.ConfigStoreURL != "" {
		store = client
	}

	cache := infrastructure.NewConfigRepository(cfg.Report.ConfigCacheTTL, log)
	configs := usecase.NewConfigService(store, cache, defaults, log, m)
	reports := usecase.NewReportService(client, configs, infrastructure.ExporterFor, log, m)

	handlers := delivery.NewHTTPHandlers(reports, configs, log)
	router := delivery.NewHTTPRouter(handlers, log, m, prometheus.DefaultGatherer, cfg.Report.RequestTimeout).SetupRoutes()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.WithFields(map[string]any{
			"port":         cfg.Server.Port,
			"ads_api":      cfg.External.AdsAPIURL,
			"config_store": store != nil,
		}).Info("Starting server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
		return
	}
	log.Info("Server stopped")
}
