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

// TLSListener accepts TLS connections and runs the server handshake.
type TLSListener struct {
	inst   *lunatic.Instance
	id     uint64
	closed bool
}

// BindTLS listens on [addr] with the PEM encoded certificate chain and key.
func BindTLS(inst *lunatic.Instance, addr string, certPEM, keyPEM []byte) (*TLSListener, error) {
	addrs, err := addrsOf(inst, addr, timeout.Infinity)
	if err != nil {
		return nil, err
	}
	var last error = &Error{Op: "bind", Addr: addr, Err: errNoAddress}
	for _, ap := range addrs {
		id, ok := inst.ABI().TLSBind(ap, certPEM, keyPEM)
		if ok {
			return &TLSListener{inst: inst, id: id}, nil
		}
		last = hostError(inst, "bind", ap.String(), id)
	}
	return nil, last
}

func (l *TLSListener) LocalAddr() (netip.AddrPort, error) {
	if l.closed {
		return netip.AddrPort{}, &Error{Op: "local addr", Err: ErrClosed}
	}
	addr, errID, ok := l.inst.ABI().TLSLocalAddr(l.id)
	if !ok {
		return netip.AddrPort{}, hostError(l.inst, "local addr", "", errID)
	}
	return addr, nil
}

func (l *TLSListener) Accept() (*TLSStream, netip.AddrPort, error) {
	if l.closed {
		return nil, netip.AddrPort{}, &Error{Op: "accept", Err: ErrClosed}
	}
	id, peer, ok := l.inst.ABI().TLSAccept(l.id)
	if !ok {
		return nil, netip.AddrPort{}, hostError(l.inst, "accept", "", id)
	}
	return &TLSStream{stream: newStream(l.inst, id, true)}, peer, nil
}

func (l *TLSListener) Close() error {
	if !l.closed {
		l.closed = true
		l.inst.ABI().TLSDropListener(l.id)
	}
	return nil
}

// TLSStream is one side of a TLS connection.
type TLSStream struct {
	stream
}

// ConnectTLS dials "host:port" and verifies the server against [rootCertsPEM],
// or against the host's roots when it is empty.
func ConnectTLS(inst *lunatic.Instance, addr string, rootCertsPEM []byte) (*TLSStream, error) {
	return ConnectTLSTimeout(inst, addr, timeout.Infinity, rootCertsPEM)
}

func ConnectTLSTimeout(inst *lunatic.Instance, addr string, d time.Duration, rootCertsPEM []byte) (*TLSStream, error) {
	hostname, port, err := splitHostPort(addr)
	if err != nil {
		return nil, &Error{Op: "connect", Addr: addr, Err: err}
	}
	id, ok := inst.ABI().TLSConnect(hostname, port, chronos.Millis(d), rootCertsPEM)
	if !ok {
		return nil, hostError(inst, "connect", addr, id)
	}
	return &TLSStream{stream: newStream(inst, id, true)}, nil
}

// MarshalResource moves the stream into the message.
func (s TLSStream) MarshalResource(res serializer.Resources) (uint64, error) {
	if s.closed {
		return 0, &Error{Op: "send", Err: ErrClosed}
	}
	return res.PushTLSStream(s.id), nil
}

func (s *TLSStream) UnmarshalResource(res serializer.Resources, index uint64) error {
	id, err := res.TakeTLSStream(index)
	if err != nil {
		return err
	}
	inst, _ := lunatic.InstanceOf(res)
	s.stream = newStream(inst, id, true)
	return nil
}

// TLS streams are host resources and cannot be written as JSON.
func (s TLSStream) MarshalJSON() ([]byte, error) {
	return nil, serializer.ErrResourcesUnsupported
}

// TLS streams are host resources and cannot be written as MessagePack.
func (s TLSStream) EncodeMsgpack(*msgpack.Encoder) error {
	return serializer.ErrResourcesUnsupported
}
