// Package net gives processes TCP and TLS sockets owned by the host.
//
// Listeners and streams are host resources. A stream is an [io.Reader] and an
// [io.Writer] and can be sent to another process inside a Bincode message:
//
//	ln, err := net.Bind(inst, "127.0.0.1:0")
//	...
//	stream, _, err := ln.Accept()
//	...
//	lunatic.Spawn(inst, handler, *stream)
//	stream.Close()
//
// Sending a [TCPStream] hands the receiver its own clone, so the sender still
// has to close its handle. TLS streams cannot be cloned: sending a [TLSStream]
// moves it and the sender must not use or close it afterwards.
package net

import (
	"errors"
	"fmt"
	gonet "net"
	"net/netip"
	"strconv"
	"time"

	"github.com/lunatic-solutions/lunatic-go/chronos"
	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/timeout"
)

var (
	// ErrClosed is returned by operations on a closed listener or stream.
	ErrClosed = errors.New("lunatic/net: use of closed network resource")

	errNoAddress = errors.New("no addresses")
)

// Error is returned by every failed network call.
type Error struct {
	Op   string
	Addr string
	Err  error
}

func (e *Error) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("lunatic/net: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("lunatic/net: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call gave up because its timeout passed.
func (e *Error) Timeout() bool {
	return errors.Is(e.Err, lunatic.ErrTimeout)
}

// hostError fetches the message of host error [id] and frees the entry.
func hostError(inst *lunatic.Instance, op, addr string, id uint64) *Error {
	err := lunatic.HostError(inst, id)
	_ = err.Error()
	err.Drop()
	return &Error{Op: op, Addr: addr, Err: err}
}

// Resolve looks up the addresses of "host:port" and waits as long as it takes.
func Resolve(inst *lunatic.Instance, name string) ([]netip.AddrPort, error) {
	return ResolveTimeout(inst, name, timeout.Infinity)
}

// ResolveTimeout is [Resolve] bounded by [d].
func ResolveTimeout(inst *lunatic.Instance, name string, d time.Duration) ([]netip.AddrPort, error) {
	addrs, errID, ok := inst.ABI().Resolve(name, chronos.Millis(d))
	if !ok {
		return nil, hostError(inst, "resolve", name, errID)
	}
	return addrs, nil
}

// addrsOf returns [addr] itself when it is a literal ip:port, or its resolved addresses.
func addrsOf(inst *lunatic.Instance, addr string, d time.Duration) ([]netip.AddrPort, error) {
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return []netip.AddrPort{ap}, nil
	}
	return ResolveTimeout(inst, addr, d)
}

func splitHostPort(addr string) (string, uint16, error) {
	h, p, err := gonet.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.ParseUint(p, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", p)
	}
	return h, uint16(port), nil
}

// ioTimeout turns a user timeout into the host's: zero or negative waits forever.
func ioTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return timeout.Infinity
	}
	return d
}
