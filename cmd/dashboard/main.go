package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/energy-analytics-service/internal/adapter/assets"
	httpadapter "github.com/couchcryptid/energy-analytics-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/energy-analytics-service/internal/adapter/kafka"
	"github.com/couchcryptid/energy-analytics-service/internal/adapter/predictor"
	"github.com/couchcryptid/energy-analytics-service/internal/config"
	"github.com/couchcryptid/energy-analytics-service/internal/dashboard"
	"github.com/couchcryptid/energy-analytics-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Remote model (feature-flagged via PREDICTION_ENABLED).
	var model dashboard.Predictor
	if cfg.PredictionEnabled {
		model = predictor.NewClient(cfg.PredictionURL, cfg.PredictionTimeout, logger)
		logger.Info("prediction enabled", "url", cfg.PredictionURL, "timeout", cfg.PredictionTimeout)
	} else {
		logger.Info("prediction disabled")
	}

	var (
		publisher dashboard.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.EventsEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("prediction events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaPredictionTopic)
	}

	svc := dashboard.NewService(model, publisher, cfg.ViewCacheSize, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Assets are loaded once; a failed load never serves.
	loader := assets.NewLoader(assets.PathsFromConfig(cfg), logger)
	if err := svc.Load(ctx, loader); err != nil {
		logger.Error("failed to load assets", "data_dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
