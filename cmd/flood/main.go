package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/flood-alert-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-alert-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-alert-service/internal/adapter/mapbox"
	"github.com/couchcryptid/flood-alert-service/internal/adapter/onnx"
	"github.com/couchcryptid/flood-alert-service/internal/adapter/smtp"
	"github.com/couchcryptid/flood-alert-service/internal/config"
	"github.com/couchcryptid/flood-alert-service/internal/dataset"
	"github.com/couchcryptid/flood-alert-service/internal/inference"
	"github.com/couchcryptid/flood-alert-service/internal/observability"
	"github.com/couchcryptid/flood-alert-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Artifacts are required: a missing or mismatched model stops the process.
	predictor, cleanup, err := loadPredictor(cfg)
	if err != nil {
		logger.Error("failed to load model artifacts", "format", cfg.ModelFormat, "error", err)
		os.Exit(1)
	}
	defer cleanup()
	logger.Info("model artifacts loaded", "format", cfg.ModelFormat, "model", cfg.ModelPath, "scaler", cfg.ScalerPath)

	opts := []pipeline.Option{
		pipeline.WithMapFilter(cfg.MapRainfallThreshold, cfg.MapFloodFlag),
		pipeline.WithDefaultRecipient(cfg.AlertRecipient),
	}

	notifier := smtp.NewNotifier(smtp.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Timeout:  cfg.SMTPTimeout,
	}, logger)
	opts = append(opts, pipeline.WithNotifier(notifier))
	if !notifier.Configured() {
		logger.Warn("smtp credentials not set, alert emails will fail")
	}

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		opts = append(opts, pipeline.WithGeocoder(mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)))
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger)
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("flood alert events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	}

	svc := pipeline.NewService(predictor, dataset.NewSource(cfg.DatasetPath), logger, metrics, opts...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()
	svc.MarkReady()

	<-ctx.Done()
	logger.Info("shutting down")
	svc.MarkDraining()

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

// loadPredictor builds the predictor for the configured artifact format. The
// returned cleanup releases any native resources.
func loadPredictor(cfg *config.Config) (*inference.Predictor, func(), error) {
	switch cfg.ModelFormat {
	case config.ModelFormatJSON:
		p, err := inference.LoadJSON(cfg.ModelPath, cfg.ScalerPath)
		return p, func() {}, err
	case config.ModelFormatONNX:
		return loadONNX(cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported model format %q", cfg.ModelFormat)
	}
}

func loadONNX(cfg *config.Config) (*inference.Predictor, func(), error) {
	if err := onnx.Acquire(cfg.ONNXLibraryPath); err != nil {
		return nil, nil, err
	}
	scaler, err := onnx.NewScaler(cfg.ScalerPath, cfg.ONNXInputName, cfg.ONNXScalerOut)
	if err != nil {
		_ = onnx.Release()
		return nil, nil, fmt.Errorf("load scaler: %w", err)
	}
	classifier, err := onnx.NewClassifier(cfg.ModelPath, cfg.ONNXInputName, cfg.ONNXLabelOut)
	if err != nil {
		_ = scaler.Close()
		_ = onnx.Release()
		return nil, nil, fmt.Errorf("load model: %w", err)
	}

	cleanup := func() {
		_ = classifier.Close()
		_ = scaler.Close()
		_ = onnx.Release()
	}
	return inference.NewPredictor(scaler, classifier), cleanup, nil
}
