// Package discovery advertises and resolves Providence publishers on the
// local network via multicast DNS, using grandcat/zeroconf — the only real
// mDNS/zeroconf client library surfaced anywhere in this module's retrieval
// pack, rather than a hand-rolled UDP multicast responder.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/SludgePhD/Providence/providenceerr"
)

const (
	serviceType = "_providence._tcp"
	domain      = "local."
)

// Advertiser publishes a Providence service on the local network for as
// long as it is open. Close it (typically via defer) to withdraw the
// advertisement.
type Advertiser struct {
	server *zeroconf.Server
}

// NewAdvertiser registers a _providence._tcp service on port, under an
// instance name derived from primary ("providence-" followed by primary's
// dotted form with dots replaced by dashes, e.g. "providence-192-168-1-4"),
// so a host with several addresses gets one distinct, stable instance name
// per address rather than colliding on a shared hostname.
func NewAdvertiser(primary net.IP, port int) (*Advertiser, error) {
	instance := "providence-" + strings.ReplaceAll(primary.String(), ".", "-")
	server, err := zeroconf.Register(instance, serviceType, domain, port, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: register %s: %w", instance, err)
	}
	return &Advertiser{server: server}, nil
}

// Close withdraws the advertisement.
func (a *Advertiser) Close() {
	a.server.Shutdown()
}

// Discover browses for a _providence._tcp instance named name (as produced
// by NewAdvertiser, or resolvable as name.local) and returns its TCP
// address. An empty name accepts the first instance found. It gives up
// after timeout, returning providenceerr.TimedOut.
func Discover(ctx context.Context, name string, timeout time.Duration) (*net.TCPAddr, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: new resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 8)
	var found *net.TCPAddr
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			if !matches(entry, name) {
				continue
			}
			addr := firstIPv4(entry)
			if addr == nil {
				continue
			}
			found = &net.TCPAddr{IP: addr, Port: entry.Port}
			cancel()
			return
		}
	}()

	if err := resolver.Browse(ctx, serviceType, domain, entries); err != nil {
		return nil, fmt.Errorf("discovery: browse: %w", err)
	}
	<-ctx.Done()
	<-done

	if found == nil {
		return nil, providenceerr.TimedOut
	}
	return found, nil
}

func matches(entry *zeroconf.ServiceEntry, name string) bool {
	if name == "" {
		return true
	}
	wantHost := name + ".local."
	return strings.EqualFold(entry.HostName, wantHost) || strings.EqualFold(entry.Instance, name)
}

func firstIPv4(entry *zeroconf.ServiceEntry) net.IP {
	if len(entry.AddrIPv4) > 0 {
		return entry.AddrIPv4[0]
	}
	return nil
}

// PrivateIPv4s enumerates every IPv4 address bound to an up, non-loopback
// local interface. A Publisher advertises under an instance name derived
// from the first entry only; the remaining entries are not advertised. It fails with
// providenceerr.AddrNotAvailable when this returns no addresses at all.
func PrivateIPv4s() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("discovery: list interfaces: %w", err)
	}

	var out []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			var ip net.IP
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			ip4 := ip.To4()
			if ip4 == nil {
				continue
			}
			out = append(out, ip4)
		}
	}
	return out, nil
}
