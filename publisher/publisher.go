// Package publisher implements the Providence side that advertises itself
// on the local network and fans out the latest tracking message to every
// connected subscriber.
package publisher

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/SludgePhD/Providence/discovery"
	"github.com/SludgePhD/Providence/internal/deferutil"
	"github.com/SludgePhD/Providence/internal/metrics"
	"github.com/SludgePhD/Providence/providenceerr"
	"github.com/SludgePhD/Providence/slot"
	"github.com/SludgePhD/Providence/task"
	"github.com/SludgePhD/Providence/wire"
)

// Publisher binds an OS-assigned TCP port, advertises it via mDNS, and
// serves every connected Subscriber the latest message handed to Publish.
type Publisher struct {
	ln         net.Listener
	writer     *slot.Writer[*wire.TrackingMessage]
	readerSeed *slot.Reader[*wire.TrackingMessage]
	advertiser *discovery.Advertiser
	accept     *task.Task[struct{}]
	logger     *zap.Logger
	registry   *metrics.Registry

	mu        sync.Mutex
	cond      *sync.Cond
	connCount int
	clients   []*task.Task[struct{}]
}

// New enumerates the host's private IPv4 addresses, fails with
// providenceerr.AddrNotAvailable if there are none, binds a TCP listener on
// an OS-assigned port, advertises it as _providence._tcp, and starts
// accepting clients. registry may be nil to disable connection/message
// metrics.
func New(logger *zap.Logger, registry *metrics.Registry) (*Publisher, error) {
	return newPublisher(logger, registry, true)
}

// NewWithoutAdvertising is like New but skips mDNS registration, for
// callers (and tests, in or outside this package) that only need a bound
// listener reachable by an address they already know.
func NewWithoutAdvertising(logger *zap.Logger, registry *metrics.Registry) (*Publisher, error) {
	return newPublisher(logger, registry, false)
}

func newPublisher(logger *zap.Logger, registry *metrics.Registry, advertise bool) (*Publisher, error) {
	addrs, err := discovery.PrivateIPv4s()
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, providenceerr.AddrNotAvailable
	}

	ln, err := net.Listen("tcp", "0.0.0.0:0")
	if err != nil {
		return nil, fmt.Errorf("publisher: listen: %w", err)
	}

	var adv *discovery.Advertiser
	if advertise {
		adv, err = discovery.NewAdvertiser(addrs[0], ln.Addr().(*net.TCPAddr).Port)
		if err != nil {
			ln.Close()
			return nil, err
		}
	}

	w, r := slot.New[*wire.TrackingMessage]()
	p := &Publisher{
		ln:         ln,
		writer:     w,
		readerSeed: r,
		advertiser: adv,
		logger:     logger,
		registry:   registry,
	}
	p.cond = sync.NewCond(&p.mu)

	p.accept = task.Spawn(func(ctx context.Context) struct{} {
		p.acceptLoop(ctx)
		return struct{}{}
	})

	return p, nil
}

// Publish replaces the slot's value, making it immediately visible to every
// client writer task currently waiting, and sent first-thing to any client
// that connects afterward.
func (p *Publisher) Publish(msg *wire.TrackingMessage) {
	p.writer.Update(msg)
	if p.registry != nil {
		p.registry.MessagesPublished.Inc()
	}
}

// Clear empties the slot so a newly connecting client is not handed a
// stale frame, without otherwise disturbing any connected client (which
// simply stops receiving new frames until the next Publish).
func (p *Publisher) Clear() {
	p.writer.Clear()
}

// HasConnection reports whether at least one client is currently connected.
func (p *Publisher) HasConnection() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connCount > 0
}

// BlockUntilConnected blocks the calling goroutine until at least one
// client is connected. It is uninterruptible except by process
// termination, matching spec.md's blocking-gate semantics for the
// pipeline's connection-gated capture lifecycle.
func (p *Publisher) BlockUntilConnected() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.connCount == 0 {
		p.cond.Wait()
	}
}

// Port returns the OS-assigned TCP port the Publisher is listening on.
func (p *Publisher) Port() uint16 {
	return uint16(p.ln.Addr().(*net.TCPAddr).Port)
}

// Close withdraws the advertisement, stops accepting new clients, and
// disconnects every connected client. Publish/Clear after Close have no
// observable effect on any client.
func (p *Publisher) Close() {
	p.ln.Close()
	if p.advertiser != nil {
		p.advertiser.Close()
	}
	p.writer.Close()
	p.accept.Close(false)

	p.mu.Lock()
	clients := p.clients
	p.clients = nil
	p.mu.Unlock()
	for _, c := range clients {
		c.Close(false)
	}
}

func (p *Publisher) acceptLoop(ctx context.Context) {
	stopAccept := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.ln.Close()
		case <-stopAccept:
		}
	}()
	defer close(stopAccept)

	for {
		conn, err := p.ln.Accept()
		if err != nil {
			if p.registry != nil {
				p.registry.AcceptErrors.Inc()
			}
			return
		}
		clientReader := p.readerSeed.Clone()
		ct := task.Spawn(func(cctx context.Context) struct{} {
			p.serveClient(cctx, conn, clientReader)
			return struct{}{}
		})

		p.mu.Lock()
		p.clients = append(p.clients, ct)
		p.compactClientsLocked()
		p.mu.Unlock()
	}
}

// compactClientsLocked drops finished client tasks from the handle list so
// it doesn't grow without bound across a long-running publisher's
// lifetime. Callers must hold p.mu.
func (p *Publisher) compactClientsLocked() {
	live := p.clients[:0]
	for _, c := range p.clients {
		if c.IsFinished() {
			c.Close(false)
			continue
		}
		live = append(live, c)
	}
	p.clients = live
}

func (p *Publisher) serveClient(ctx context.Context, conn net.Conn, reader *slot.Reader[*wire.TrackingMessage]) {
	defer conn.Close()

	p.incConn()
	guard := deferutil.New(p.decConn)
	defer guard.Run()

	peer := conn.RemoteAddr().String()

	if msg, ok := reader.Get(); ok {
		if err := wire.WriteMessage(conn, msg); err != nil {
			p.logger.Debug("publisher: initial send failed", zap.String("peer", peer), zap.Error(err))
			return
		}
		p.incDelivered()
	}

	for {
		msg, err := reader.Wait()
		if err != nil {
			// Disconnected: the publisher's writer was closed. Nothing more
			// to send; exit cleanly.
			return
		}
		if err := wire.WriteMessage(conn, msg); err != nil {
			p.logger.Debug("publisher: send failed", zap.String("peer", peer), zap.Error(err))
			return
		}
		p.incDelivered()
	}
}

func (p *Publisher) incDelivered() {
	if p.registry != nil {
		p.registry.MessagesDelivered.Inc()
	}
}

func (p *Publisher) incConn() {
	p.mu.Lock()
	p.connCount++
	p.mu.Unlock()
	p.cond.Broadcast()
	if p.registry != nil {
		p.registry.ActiveConnections.Inc()
	}
}

func (p *Publisher) decConn() {
	p.mu.Lock()
	p.connCount--
	p.mu.Unlock()
	p.cond.Broadcast()
	if p.registry != nil {
		p.registry.ActiveConnections.Dec()
	}
}
