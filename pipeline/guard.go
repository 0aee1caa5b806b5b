package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// GuardConfig configures a Guard.
type GuardConfig struct {
	// MaxFPS paces the capture loop to at most this many iterations per
	// second.
	MaxFPS float64
	// CPUPauseThreshold (0-100) is the system CPU percentage above which
	// Degraded reports true.
	CPUPauseThreshold float64
	// SamplePeriod is how often CPU usage is resampled.
	SamplePeriod time.Duration
}

// Guard is pipeline's resource guard: it paces the capture loop with a
// rate limiter and flags CPU overload so the capture stage can degrade
// gracefully, grounded on the static resource guard pattern (rate limiter
// plus periodic gopsutil CPU sampling) used elsewhere in this module's
// retrieval pack, adapted here from connection admission control to
// frame-rate admission control.
type Guard struct {
	limiter        *rate.Limiter
	pauseThreshold float64
	period         time.Duration
	logger         *zap.Logger

	currentCPU atomic.Value // float64

	stop chan struct{}
	done chan struct{}
}

// NewGuard constructs a Guard and starts its background CPU sampling loop.
// Call Close to stop it.
func NewGuard(cfg GuardConfig, logger *zap.Logger) *Guard {
	burst := int(cfg.MaxFPS) + 1
	g := &Guard{
		limiter:        rate.NewLimiter(rate.Limit(cfg.MaxFPS), burst),
		pauseThreshold: cfg.CPUPauseThreshold,
		period:         cfg.SamplePeriod,
		logger:         logger,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
	g.currentCPU.Store(0.0)
	go g.monitorLoop()
	return g
}

func (g *Guard) monitorLoop() {
	defer close(g.done)
	ticker := time.NewTicker(g.period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			percent, err := cpu.Percent(100*time.Millisecond, false)
			if err != nil {
				g.logger.Warn("pipeline: cpu sample failed", zap.Error(err))
				continue
			}
			if len(percent) > 0 {
				g.currentCPU.Store(percent[0])
			}
		case <-g.stop:
			return
		}
	}
}

// Close stops the background CPU sampling loop.
func (g *Guard) Close() {
	close(g.stop)
	<-g.done
}

// Wait blocks until the next capture iteration is allowed by the rate
// limiter, or ctx is done.
func (g *Guard) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// Degraded reports whether the most recently sampled CPU usage has crossed
// the configured pause threshold.
func (g *Guard) Degraded() bool {
	return g.currentCPU.Load().(float64) > g.pauseThreshold
}

// CurrentCPU returns the most recently sampled system CPU percentage.
func (g *Guard) CurrentCPU() float64 {
	return g.currentCPU.Load().(float64)
}
