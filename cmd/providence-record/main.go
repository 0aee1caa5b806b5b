// Command providence-record subscribes to a Providence publisher and
// appends every received message to a recording file, per spec.md §6.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SludgePhD/Providence/discovery"
	"github.com/SludgePhD/Providence/recording"
	"github.com/SludgePhD/Providence/subscriber"
)

func main() {
	var (
		path    = flag.String("out", "recording.bin", "path to write the recording to")
		service = flag.String("name", "", "mDNS instance name to discover (any instance if empty)")
		timeout = flag.Duration("timeout", 30*time.Second, "how long to search for a publisher")
	)
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync() // nolint:errcheck

	if err := run(*path, *service, *timeout, logger); err != nil {
		logger.Error("record failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(path, service string, timeout time.Duration, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr, err := discovery.Discover(ctx, service, timeout)
	if err != nil {
		return fmt.Errorf("discover publisher: %w", err)
	}

	sub, err := subscriber.Connect(addr)
	if err != nil {
		return fmt.Errorf("connect to publisher: %w", err)
	}
	defer sub.Close(false)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := recording.NewWriter(f)
	logger.Info("recording started", zap.String("path", path), zap.String("publisher", addr.String()))

	for {
		select {
		case <-ctx.Done():
			logger.Info("recording stopped")
			return nil
		default:
		}

		msg, err := sub.Block()
		if err != nil {
			return fmt.Errorf("subscriber: %w", err)
		}
		if err := w.Write(msg); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
}
