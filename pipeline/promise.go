// Package pipeline glues webcam capture to the publisher through a small,
// fixed set of named worker stages (capture, face-track, assembler),
// connected by single-use promise/handle pairs rather than a generic work
// queue — each stage only ever has one outstanding item per iteration. This
// is grounded on the producer/consumer channel-pair style used throughout
// this module's retrieval pack's pub-sub examples and the bounded,
// backpressuring queue style of its worker-pool example.
package pipeline

import "sync"

// promiseState is shared between one promise and its handle.
type promiseState[T any] struct {
	mu       sync.Mutex
	done     bool
	hasValue bool
	value    T
	doneCh   chan struct{}
}

// promise is the producing half of a single-use handle. A stage creates a
// promise/handle pair, does its work, and settles the promise exactly
// once — with a value (resolve), or empty (drop), which the handle
// observes as "no result this iteration" (e.g. no face in view).
type promise[T any] struct {
	s *promiseState[T]
}

// handle is the consuming half of a single-use promise.
type handle[T any] struct {
	s *promiseState[T]
}

// newPromise creates a connected promise/handle pair.
func newPromise[T any]() (promise[T], handle[T]) {
	s := &promiseState[T]{doneCh: make(chan struct{})}
	return promise[T]{s: s}, handle[T]{s: s}
}

// resolve settles the promise with v.
func (p promise[T]) resolve(v T) {
	p.s.mu.Lock()
	p.s.value = v
	p.s.hasValue = true
	p.s.done = true
	p.s.mu.Unlock()
	close(p.s.doneCh)
}

// drop settles the promise with nothing.
func (p promise[T]) drop() {
	p.s.mu.Lock()
	p.s.done = true
	p.s.mu.Unlock()
	close(p.s.doneCh)
}

// ready reports whether the promise has settled, without blocking. Dispatch
// uses this to inspect the front of its FIFO before deciding to pop it.
func (h handle[T]) ready() bool {
	select {
	case <-h.s.doneCh:
		return true
	default:
		return false
	}
}

// poll returns the settled value, and whether it was a value (true) or a
// drop (false). Calling poll before the promise has settled returns the
// zero value and false; callers should check ready first.
func (h handle[T]) poll() (T, bool) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if !h.s.done {
		var zero T
		return zero, false
	}
	return h.s.value, h.s.hasValue
}

// wait blocks until the promise settles and returns the same result as
// poll.
func (h handle[T]) wait() (T, bool) {
	<-h.s.doneCh
	return h.poll()
}
