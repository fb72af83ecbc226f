package vm

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/lunatic-solutions/lunatic-go/chronos"
)

// Blocking accepts and reads wake up this often to notice a killed process.
const ioSlice = 50 * time.Millisecond

type listener struct {
	tcp *net.TCPListener
	// set for TLS listeners
	tlsConfig *tls.Config
}

// stream is shared by every id cloned from it and closed when the last id is dropped.
type stream struct {
	conn net.Conn
	refs *atomic.Int32
}

type netTable struct {
	mx        sync.Mutex
	nextID    uint64
	listeners map[uint64]*listener
	streams   map[uint64]*stream
}

func newNetTable() *netTable {
	return &netTable{
		listeners: make(map[uint64]*listener),
		streams:   make(map[uint64]*stream),
	}
}

func (t *netTable) addListener(l *listener) uint64 {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.nextID++
	t.listeners[t.nextID] = l
	return t.nextID
}

func (t *netTable) addStream(s *stream) uint64 {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.nextID++
	t.streams[t.nextID] = s
	return t.nextID
}

func (t *netTable) listener(id uint64, wantTLS bool) *listener {
	t.mx.Lock()
	defer t.mx.Unlock()
	l, ok := t.listeners[id]
	if !ok || (l.tlsConfig != nil) != wantTLS {
		panic(fmt.Sprintf("listener id %d not found", id))
	}
	return l
}

func (t *netTable) stream(id uint64) *stream {
	t.mx.Lock()
	defer t.mx.Unlock()
	s, ok := t.streams[id]
	if !ok {
		panic(fmt.Sprintf("stream id %d not found", id))
	}
	return s
}

func (t *netTable) clone(id uint64) uint64 {
	s := t.stream(id)
	s.refs.Inc()
	return t.addStream(s)
}

func (t *netTable) dropStream(id uint64) {
	t.mx.Lock()
	s, ok := t.streams[id]
	delete(t.streams, id)
	t.mx.Unlock()

	if ok && s.refs.Dec() == 0 {
		s.conn.Close()
	}
}

func (t *netTable) dropListener(id uint64) {
	t.mx.Lock()
	l, ok := t.listeners[id]
	delete(t.listeners, id)
	t.mx.Unlock()

	if ok {
		l.tcp.Close()
	}
}

func (t *netTable) close() {
	t.mx.Lock()
	defer t.mx.Unlock()

	for id, l := range t.listeners {
		l.tcp.Close()
		delete(t.listeners, id)
	}
	for id, s := range t.streams {
		s.conn.Close()
		delete(t.streams, id)
	}
}

func newStream(conn net.Conn) *stream {
	return &stream{conn: conn, refs: atomic.NewInt32(1)}
}

func addrPort(a net.Addr) netip.AddrPort {
	if tcp, ok := a.(*net.TCPAddr); ok {
		ap := tcp.AddrPort()
		return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	}
	return netip.AddrPort{}
}

func deadlineFor(ms uint64) time.Time {
	d := chronos.FromMillis(ms)
	if d < 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

func resolve(name string, timeoutMs uint64) ([]netip.AddrPort, error) {
	hostname, portStr, err := net.SplitHostPort(name)
	if err != nil {
		return nil, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid port in %q: %w", name, err)
	}

	ctx := context.Background()
	if d := chronos.FromMillis(timeoutMs); d >= 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", hostname)
	if err != nil {
		return nil, err
	}
	out := make([]netip.AddrPort, 0, len(ips))
	for _, ip := range ips {
		out = append(out, netip.AddrPortFrom(ip.Unmap(), uint16(port)))
	}
	return out, nil
}

// accept waits for a connection on [l], checking between slices that [p] is alive.
func (l *listener) accept(p *process) (net.Conn, error) {
	for {
		p.check()
		if err := l.tcp.SetDeadline(time.Now().Add(ioSlice)); err != nil {
			return nil, err
		}
		conn, err := l.tcp.Accept()
		if errors.Is(err, os.ErrDeadlineExceeded) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if l.tlsConfig != nil {
			return tls.Server(conn, l.tlsConfig), nil
		}
		return conn, nil
	}
}

// read follows the host convention: EOF is a successful read of 0 bytes.
func (s *stream) read(p *process, buf []byte, timeoutMs uint64) (n int, timedOut bool, err error) {
	deadline := deadlineFor(timeoutMs)
	for {
		p.check()
		slice := time.Now().Add(ioSlice)
		if !deadline.IsZero() && deadline.Before(slice) {
			slice = deadline
		}
		if err := s.conn.SetReadDeadline(slice); err != nil {
			return 0, false, err
		}
		n, err = s.conn.Read(buf)
		switch {
		case n > 0 || err == nil || errors.Is(err, io.EOF):
			return n, false, nil
		case errors.Is(err, os.ErrDeadlineExceeded):
			if !deadline.IsZero() && !time.Now().Before(deadline) {
				return 0, true, nil
			}
		default:
			return 0, false, err
		}
	}
}

// write is not sliced: a TLS connection is unusable after a write deadline passes.
func (s *stream) write(buf []byte, timeoutMs uint64) (n int, timedOut bool, err error) {
	if err := s.conn.SetWriteDeadline(deadlineFor(timeoutMs)); err != nil {
		return 0, false, err
	}
	n, err = s.conn.Write(buf)
	if n == 0 && errors.Is(err, os.ErrDeadlineExceeded) {
		return 0, true, nil
	}
	if n > 0 {
		return n, false, nil
	}
	return 0, false, err
}

func tlsServerConfig(certPEM, keyPEM []byte) (*tls.Config, error) {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}, nil
}

func tlsClientConfig(serverName string, rootCertsPEM []byte) (*tls.Config, error) {
	cfg := &tls.Config{ServerName: serverName}
	if len(rootCertsPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(rootCertsPEM) {
			return nil, errors.New("no valid certificates in root certificate PEM")
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}
