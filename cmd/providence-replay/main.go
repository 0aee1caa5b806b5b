// Command providence-replay publishes a previously recorded stream of
// TrackingMessages at its original cadence, looping on EOF, per spec.md §6.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SludgePhD/Providence/publisher"
	"github.com/SludgePhD/Providence/recording"
)

func main() {
	path := flag.String("in", "recording.bin", "path to the recording to replay")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync() // nolint:errcheck

	if err := run(*path, logger); err != nil {
		logger.Error("replay failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(path string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pub, err := publisher.New(logger, nil)
	if err != nil {
		return fmt.Errorf("publisher startup: %w", err)
	}
	defer pub.Close()

	logger.Info("replay publisher ready", zap.Uint16("port", pub.Port()))
	pub.BlockUntilConnected()

	for {
		if err := replayOnce(ctx, path, pub); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			logger.Info("replay stopped")
			return nil
		default:
		}
	}
}

// replayOnce streams one full pass over the recording at path, sleeping
// each record's inter-arrival delay before publishing it. EOF is a clean
// loop boundary, not an error: it returns nil and the caller reopens the
// file for the next pass.
func replayOnce(ctx context.Context, path string, pub *publisher.Publisher) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := recording.NewReader(f)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(rec.Delay):
		}

		pub.Publish(rec.Message)
	}
}
