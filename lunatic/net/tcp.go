package net

import (
	"net/netip"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lunatic-solutions/lunatic-go/chronos"
	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/serializer"
	"github.com/lunatic-solutions/lunatic-go/lunatic/timeout"
)

// TCPListener accepts TCP connections.
type TCPListener struct {
	inst   *lunatic.Instance
	id     uint64
	closed bool
}

// Bind listens on [addr], a literal "ip:port" or a "host:port" that is resolved
// first. Every resolved address is tried and the last failure is returned.
func Bind(inst *lunatic.Instance, addr string) (*TCPListener, error) {
	addrs, err := addrsOf(inst, addr, timeout.Infinity)
	if err != nil {
		return nil, err
	}
	var last error = &Error{Op: "bind", Addr: addr, Err: errNoAddress}
	for _, ap := range addrs {
		id, ok := inst.ABI().TCPBind(ap)
		if ok {
			return &TCPListener{inst: inst, id: id}, nil
		}
		last = hostError(inst, "bind", ap.String(), id)
	}
	return nil, last
}

// LocalAddr returns the address the listener is bound to.
func (l *TCPListener) LocalAddr() (netip.AddrPort, error) {
	if l.closed {
		return netip.AddrPort{}, &Error{Op: "local addr", Err: ErrClosed}
	}
	addr, errID, ok := l.inst.ABI().TCPLocalAddr(l.id)
	if !ok {
		return netip.AddrPort{}, hostError(l.inst, "local addr", "", errID)
	}
	return addr, nil
}

// Accept waits for the next connection and returns it with the peer's address.
func (l *TCPListener) Accept() (*TCPStream, netip.AddrPort, error) {
	if l.closed {
		return nil, netip.AddrPort{}, &Error{Op: "accept", Err: ErrClosed}
	}
	id, peer, ok := l.inst.ABI().TCPAccept(l.id)
	if !ok {
		return nil, netip.AddrPort{}, hostError(l.inst, "accept", "", id)
	}
	return &TCPStream{stream: newStream(l.inst, id, false)}, peer, nil
}

func (l *TCPListener) Close() error {
	if !l.closed {
		l.closed = true
		l.inst.ABI().TCPDropListener(l.id)
	}
	return nil
}

// TCPStream is one side of a TCP connection.
type TCPStream struct {
	stream
}

// Connect dials [addr] and waits as long as the host lets it.
func Connect(inst *lunatic.Instance, addr string) (*TCPStream, error) {
	return ConnectTimeout(inst, addr, timeout.Infinity)
}

// ConnectTimeout dials [addr], giving each resolved address up to [d].
func ConnectTimeout(inst *lunatic.Instance, addr string, d time.Duration) (*TCPStream, error) {
	addrs, err := addrsOf(inst, addr, d)
	if err != nil {
		return nil, err
	}
	var last error = &Error{Op: "connect", Addr: addr, Err: errNoAddress}
	for _, ap := range addrs {
		id, ok := inst.ABI().TCPConnect(ap, chronos.Millis(d))
		if ok {
			return &TCPStream{stream: newStream(inst, id, false)}, nil
		}
		last = hostError(inst, "connect", ap.String(), id)
	}
	return nil, last
}

// Clone returns a second handle to the same connection. Each handle is closed on its own.
func (s *TCPStream) Clone() *TCPStream {
	c := *s
	c.id = s.inst.ABI().TCPCloneStream(s.id)
	return &c
}

// MarshalResource pushes a clone of the stream, so the sender keeps its handle.
func (s TCPStream) MarshalResource(res serializer.Resources) (uint64, error) {
	if s.closed {
		return 0, &Error{Op: "send", Err: ErrClosed}
	}
	return res.PushTCPStream(s.inst.ABI().TCPCloneStream(s.id)), nil
}

func (s *TCPStream) UnmarshalResource(res serializer.Resources, index uint64) error {
	id, err := res.TakeTCPStream(index)
	if err != nil {
		return err
	}
	inst, _ := lunatic.InstanceOf(res)
	s.stream = newStream(inst, id, false)
	return nil
}

// TCP streams are host resources and cannot be written as JSON.
func (s TCPStream) MarshalJSON() ([]byte, error) {
	return nil, serializer.ErrResourcesUnsupported
}

// TCP streams are host resources and cannot be written as MessagePack.
func (s TCPStream) EncodeMsgpack(*msgpack.Encoder) error {
	return serializer.ErrResourcesUnsupported
}
