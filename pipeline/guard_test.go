package pipeline

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestGuardDegradedReflectsSampledCPU(t *testing.T) {
	g := NewGuard(GuardConfig{MaxFPS: 30, CPUPauseThreshold: 80, SamplePeriod: time.Hour}, zap.NewNop())
	defer g.Close()

	if g.Degraded() {
		t.Fatal("Degraded should be false before any CPU usage exceeds the threshold")
	}

	g.currentCPU.Store(95.0)
	if !g.Degraded() {
		t.Fatal("Degraded should be true once sampled CPU exceeds the threshold")
	}
}

func TestGuardWaitRespectsContextCancellation(t *testing.T) {
	g := NewGuard(GuardConfig{MaxFPS: 0.001, CPUPauseThreshold: 80, SamplePeriod: time.Hour}, zap.NewNop())
	defer g.Close()

	// Drain the initial burst token so the next Wait would otherwise block
	// for a long time.
	_ = g.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.Wait(ctx)
	if err == nil {
		t.Fatal("Wait should return an error once the context is done")
	}
}
