// Command providence-tracker runs the core capture→pipeline→publisher
// loop: it owns the webcam, tracks faces, and publishes TrackingMessages
// to every connected viewer, per spec.md §4.8.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "go.uber.org/automaxprocs"

	"github.com/SludgePhD/Providence/internal/config"
	"github.com/SludgePhD/Providence/internal/logging"
	"github.com/SludgePhD/Providence/internal/metrics"
	"github.com/SludgePhD/Providence/pipeline"
	"github.com/SludgePhD/Providence/publisher"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() // nolint:errcheck

	registry := metrics.NewRegistry()

	pub, err := publisher.New(logger, registry)
	if err != nil {
		logger.Fatal("publisher startup failed", zap.Error(err))
	}
	defer pub.Close()

	guard := pipeline.NewGuard(pipeline.GuardConfig{
		MaxFPS:            60,
		CPUPauseThreshold: cfg.Capture.GuardCPULoad * 100,
		SamplePeriod:      cfg.Capture.GuardPeriod,
	}, logger)
	defer guard.Close()

	tracker, assembler := newDemoStages()

	open := func() (pipeline.ImageSource, error) {
		return newWebcamSource(cfg.Capture.DeviceIndex)
	}

	pipe := pipeline.NewPipeline(open, guard, tracker, assembler, pub, registry, logger)
	defer pipe.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipelineErrCh := make(chan error, 1)
	go func() {
		pipelineErrCh <- pipe.Run(ctx)
	}()

	var httpErrCh chan error
	if cfg.Metrics.Enabled {
		httpErrCh = make(chan error, 1)
		go func() {
			httpErrCh <- runMetricsServer(ctx, cfg.Metrics, registry, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-pipelineErrCh:
		if err != nil && ctx.Err() == nil {
			logger.Error("pipeline stopped", zap.Error(err))
		}
		stop()
	}
}

func runMetricsServer(ctx context.Context, cfg config.MetricsConfig, registry *metrics.Registry, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Endpoint, registry.Handler())

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics http server starting", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
