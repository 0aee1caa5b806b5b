package pipeline

import "time"

// timestampOffset forces the published microsecond timestamp to wrap past
// a 32-bit boundary within about 10 seconds of startup, per spec.md §4.8
// step 1, so clients exercise the wrap path early rather than waiting
// ~71 minutes for a real wraparound.
const timestampOffset = ^uint32(0) - 10_000_000

// Clock produces monotonically increasing timestamps relative to a fixed
// reference instant, wrapping per timestampOffset.
type Clock struct {
	reference time.Time
}

// NewClock starts a Clock referenced to the current instant.
func NewClock() Clock {
	return Clock{reference: time.Now()}
}

// Timestamp returns the current wire timestamp: microseconds elapsed since
// the clock's reference instant, offset and truncated to 32 bits so it
// wraps shortly after startup.
func (c Clock) Timestamp() uint32 {
	elapsedMicros := uint64(time.Since(c.reference).Microseconds())
	return uint32(elapsedMicros) + timestampOffset
}

// ImageSource supplies one captured frame per call to Read. Out of scope
// per spec.md (§1): any camera/webcam library satisfying this shape plugs
// in directly.
type ImageSource interface {
	Read() (Image, error)
	Close() error
}
