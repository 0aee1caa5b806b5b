// Package deferutil provides a tiny scoped-cleanup helper for the handful of
// call sites that need to guarantee a cleanup runs exactly once on every exit
// path, including panics. Most of the codebase just uses a plain `defer`
// statement; this exists for the cases where the cleanup closure is built up
// dynamically (e.g. the publisher's per-connection counter) and reads better
// as a named guard than as a defer with a captured flag.
package deferutil

// Guard runs cleanup at most once: on the first call to Run, unless Cancel
// was called first, in which case cleanup never runs.
type Guard struct {
	cleanup func()
	done    bool
}

// New returns a Guard that will call cleanup when it goes out of scope.
// Callers use it as:
//
//	g := deferutil.New(cleanup)
//	defer g.Run()
func New(cleanup func()) *Guard {
	return &Guard{cleanup: cleanup}
}

// Run executes the cleanup if it has not already run. Safe to call multiple
// times; only the first call has an effect.
func (g *Guard) Run() {
	if g.done {
		return
	}
	g.done = true
	g.cleanup()
}

// Cancel disarms the guard: Run will no longer invoke the cleanup. Used when
// ownership of the cleaned-up resource is transferred to something else
// before the guard's scope ends.
func (g *Guard) Cancel() {
	g.done = true
}
