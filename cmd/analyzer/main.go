// Command analyzer serves the bad-year analysis API over HTTP and, when
// KAFKA_ENABLED is true, answers analysis requests published to Kafka.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/couchcryptid/rainfall-badyears/internal/adapter/catalog"
	httpadapter "github.com/couchcryptid/rainfall-badyears/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/rainfall-badyears/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-badyears/internal/adapter/mapbox"
	"github.com/couchcryptid/rainfall-badyears/internal/analysis"
	"github.com/couchcryptid/rainfall-badyears/internal/config"
	"github.com/couchcryptid/rainfall-badyears/internal/domain"
	"github.com/couchcryptid/rainfall-badyears/internal/observability"
	"github.com/couchcryptid/rainfall-badyears/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	cat := catalog.New(cfg.DataDir)
	svc := analysis.New(cat, geocoder, analysis.Options{
		DefaultBaseYear: cfg.DefaultBaseYear,
		LoadConcurrency: cfg.LoadConcurrency,
	}, metrics, logger)

	ready := readiness{cat}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		wg     sync.WaitGroup
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p := pipeline.New(reader, pipeline.NewTransformer(svc, logger), writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka request pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, cat, svc, logger)

	// Start HTTP server.
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
	wg.Wait()
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// readiness is ready when every component is.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
