// Package subscriber implements the Providence client side: discover (or
// dial) a publisher, decode its frames, and expose the latest message via
// get/next/block.
package subscriber

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/SludgePhD/Providence/discovery"
	"github.com/SludgePhD/Providence/slot"
	"github.com/SludgePhD/Providence/task"
	"github.com/SludgePhD/Providence/wire"
)

// unboundedDiscoveryTimeout stands in for the original's "infinite" async
// discovery timeout: Go's context package has no literal infinity, so
// AutoconnectAsync uses a timeout long enough that only ctx cancellation by
// the caller ever actually cuts it short.
const unboundedDiscoveryTimeout = 7 * 24 * time.Hour

// Subscriber connects to exactly one Publisher and exposes the stream of
// TrackingMessage values it sends.
type Subscriber struct {
	reader *slot.Reader[*wire.TrackingMessage]
	writer *slot.Writer[*wire.TrackingMessage]
	task   *task.Task[error]

	mu      sync.Mutex
	joined  bool
	joinErr error
}

// Connect dials addr directly, without discovery, and starts a background
// task that reads framed messages from it into a local slot until the
// connection fails or is closed.
func Connect(addr net.Addr) (*Subscriber, error) {
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		return nil, fmt.Errorf("subscriber: dial %s: %w", addr, err)
	}

	w, r := slot.New[*wire.TrackingMessage]()
	s := &Subscriber{reader: r, writer: w}
	s.task = task.Spawn(func(ctx context.Context) error {
		return s.readLoop(ctx, conn)
	})
	return s, nil
}

// AutoconnectBlocking discovers a Providence publisher named name, resolves
// it, and connects, giving up after timeout.
func AutoconnectBlocking(name string, timeout time.Duration) (*Subscriber, error) {
	addr, err := discovery.Discover(context.Background(), name, timeout)
	if err != nil {
		return nil, err
	}
	return Connect(addr)
}

// AutoconnectAsync is AutoconnectBlocking's asynchronous counterpart: it
// uses an effectively unbounded discovery timeout, honoring only ctx for
// early cancellation, since Go's goroutines make a literal non-blocking
// variant of Connect unnecessary.
func AutoconnectAsync(ctx context.Context, name string) (*Subscriber, error) {
	addr, err := discovery.Discover(ctx, name, unboundedDiscoveryTimeout)
	if err != nil {
		return nil, err
	}
	return Connect(addr)
}

// Get returns the most recently received message, or nil if none has
// arrived yet. If the connection has failed (or is closed), Get joins the
// internal read task once to surface its I/O error, like Block.
func (s *Subscriber) Get() (*wire.TrackingMessage, error) {
	if err := s.ping(); err != nil {
		return nil, err
	}
	msg, _ := s.reader.Get()
	return msg, nil
}

// Next returns the most recently received message only if it is new since
// the last Get/Next/Block call, or nil otherwise. If the connection has
// failed (or is closed), Next joins the internal read task once to surface
// its I/O error, like Block.
func (s *Subscriber) Next() (*wire.TrackingMessage, error) {
	if err := s.ping(); err != nil {
		return nil, err
	}
	msg, _ := s.reader.Next()
	return msg, nil
}

// ping checks whether the slot's writer has disconnected and, if so, joins
// the internal read task to surface its I/O error. Get and Next call this
// before delegating to the slot reader so a caller polling them (rather
// than blocking) still learns about a dropped connection or a bad
// fingerprint.
func (s *Subscriber) ping() error {
	if s.reader.IsDisconnected() {
		return s.joinError()
	}
	return nil
}

// Block blocks until the next message arrives and returns it. If the
// connection has failed (or is closed), Block joins the internal read
// task once to surface its I/O error; every later call returns that same
// cached error.
func (s *Subscriber) Block() (*wire.TrackingMessage, error) {
	msg, err := s.reader.Block()
	if err == nil {
		return msg, nil
	}
	return nil, s.joinError()
}

func (s *Subscriber) joinError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.joined {
		s.joinErr = s.task.Block()
		s.joined = true
	}
	return s.joinErr
}

// Close cancels the internal read task (closing its connection) and waits
// for it to exit. callerIsPanicking mirrors task.Task.Close: pass true only
// when Close is itself being called while unwinding from a panic.
func (s *Subscriber) Close(callerIsPanicking bool) {
	s.task.Close(callerIsPanicking)
}

func (s *Subscriber) readLoop(ctx context.Context, conn net.Conn) error {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()
	defer close(stop)
	defer conn.Close()
	defer s.writer.Close()

	for {
		msg, err := wire.ReadMessage(conn)
		if err != nil {
			return err
		}
		s.writer.Update(msg)
	}
}
