package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/SludgePhD/Providence/internal/metrics"
)

// StageStats tracks a rolling per-second iteration count and per-call
// latency for one named pipeline stage, publishing both into a
// metrics.Registry's StageFPS/StageLatency collectors.
type StageStats struct {
	name     string
	registry *metrics.Registry

	windowStart int64 // unix nanos, atomic
	windowCount atomic.Int64
}

// NewStageStats constructs a StageStats for the named stage. registry may
// be nil, in which case Record records nothing and Timed only runs its fn (metrics are ambient
// infrastructure, not a required dependency of pipeline logic).
func NewStageStats(name string, registry *metrics.Registry) *StageStats {
	return &StageStats{name: name, registry: registry, windowStart: time.Now().UnixNano()}
}

// Record reports that one iteration of the stage completed in d, updating
// both the per-stage latency histogram and the rolling FPS gauge.
func (s *StageStats) Record(d time.Duration) {
	if s.registry == nil {
		return
	}
	s.registry.StageLatency.WithLabelValues(s.name).Observe(d.Seconds())
	s.windowCount.Add(1)

	now := time.Now().UnixNano()
	start := atomic.LoadInt64(&s.windowStart)
	elapsed := time.Duration(now - start)
	if elapsed >= time.Second {
		count := s.windowCount.Swap(0)
		if atomic.CompareAndSwapInt64(&s.windowStart, start, now) {
			fps := float64(count) / elapsed.Seconds()
			s.registry.StageFPS.WithLabelValues(s.name).Set(fps)
		}
	}
}

// Timed runs fn and records its duration against the stage.
func (s *StageStats) Timed(fn func()) {
	start := time.Now()
	fn()
	s.Record(time.Since(start))
}
