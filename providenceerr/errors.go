// Package providenceerr defines the error kinds shared across the transport
// and pipeline packages.
//
// These are sentinel values, checked with errors.Is, rather than distinct
// types. InvalidData is returned inside a wire.DecodeError that also carries
// the underlying decode or read failure, which callers may still unwrap;
// AddrNotAvailable, TimedOut and Disconnected are returned bare.
package providenceerr

import "errors"

var (
	// AddrNotAvailable is returned when a Publisher cannot find any private
	// IPv4 interface to advertise itself on.
	AddrNotAvailable = errors.New("no private IPv4 network interface available")

	// TimedOut is returned when service discovery or name resolution produced
	// no result within the allotted time.
	TimedOut = errors.New("discovery timed out")

	// InvalidData is returned when a frame's fingerprint does not match, or
	// its body fails to decode.
	InvalidData = errors.New("invalid wire data")

	// Disconnected is returned by a Slot's Reader once its Writer has been
	// dropped. It is always translated to an Io-classified error once it
	// crosses a Subscriber/Publisher boundary, per spec.
	Disconnected = errors.New("slot writer disconnected")
)
