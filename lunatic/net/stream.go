package net

import (
	"io"
	"time"

	"github.com/lunatic-solutions/lunatic-go/chronos"
	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
	"github.com/lunatic-solutions/lunatic-go/lunatic/timeout"
)

// stream is the part TCP and TLS streams share. The host read and write calls
// of both kinds have the same result conventions.
type stream struct {
	inst         *lunatic.Instance
	id           uint64
	tls          bool
	readTimeout  time.Duration
	writeTimeout time.Duration
	closed       bool
}

func newStream(inst *lunatic.Instance, id uint64, tls bool) stream {
	return stream{
		inst:         inst,
		id:           id,
		tls:          tls,
		readTimeout:  timeout.Infinity,
		writeTimeout: timeout.Infinity,
	}
}

// ID returns the host stream id.
func (s *stream) ID() uint64 {
	return s.id
}

// SetReadTimeout bounds every following Read. Zero or negative waits forever.
func (s *stream) SetReadTimeout(d time.Duration) {
	s.readTimeout = ioTimeout(d)
}

// SetWriteTimeout bounds every following Write. Zero or negative waits forever.
func (s *stream) SetWriteTimeout(d time.Duration) {
	s.writeTimeout = ioTimeout(d)
}

// Read reads into [p]. A closed peer is [io.EOF]; a timeout is an [*Error]
// whose Timeout method reports true.
func (s *stream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, &Error{Op: "read", Err: ErrClosed}
	}
	if len(p) == 0 {
		return 0, nil
	}
	abi := s.inst.ABI()
	var n uint64
	var res uint32
	if s.tls {
		n, res = abi.TLSRead(s.id, p, chronos.Millis(s.readTimeout))
	} else {
		n, res = abi.TCPRead(s.id, p, chronos.Millis(s.readTimeout))
	}
	switch res {
	case host.NetOK:
		if n == 0 {
			return 0, io.EOF
		}
		return int(n), nil
	case host.NetTimeout:
		return 0, &Error{Op: "read", Err: lunatic.ErrTimeout}
	default:
		return 0, hostError(s.inst, "read", "", n)
	}
}

// Write writes all of [p] unless an error stops it.
func (s *stream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, &Error{Op: "write", Err: ErrClosed}
	}
	abi := s.inst.ABI()
	written := 0
	for written < len(p) {
		var n uint64
		var res uint32
		if s.tls {
			n, res = abi.TLSWrite(s.id, p[written:], chronos.Millis(s.writeTimeout))
		} else {
			n, res = abi.TCPWrite(s.id, p[written:], chronos.Millis(s.writeTimeout))
		}
		switch res {
		case host.NetOK:
			if n == 0 {
				return written, &Error{Op: "write", Err: io.ErrShortWrite}
			}
			written += int(n)
		case host.NetTimeout:
			return written, &Error{Op: "write", Err: lunatic.ErrTimeout}
		default:
			return written, hostError(s.inst, "write", "", n)
		}
	}
	return written, nil
}

// Flush pushes buffered data to the peer.
func (s *stream) Flush() error {
	if s.closed {
		return &Error{Op: "flush", Err: ErrClosed}
	}
	var errID uint64
	var ok bool
	if s.tls {
		errID, ok = s.inst.ABI().TLSFlush(s.id)
	} else {
		errID, ok = s.inst.ABI().TCPFlush(s.id)
	}
	if !ok {
		return hostError(s.inst, "flush", "", errID)
	}
	return nil
}

// Close drops this handle. The connection closes with its last handle.
func (s *stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tls {
		s.inst.ABI().TLSDropStream(s.id)
	} else {
		s.inst.ABI().TCPDropStream(s.id)
	}
	return nil
}
