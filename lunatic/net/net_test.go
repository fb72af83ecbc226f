//go:build !integration

package net_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"math/big"
	gonet "net"
	"testing"
	"time"

	"golang.org/x/net/nettest"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/lunatictest"
	"github.com/lunatic-solutions/lunatic-go/lunatic/net"
	"github.com/lunatic-solutions/lunatic-go/lunatic/serializer"
	"github.com/lunatic-solutions/lunatic-go/lunatic/tuple"
)

type dial struct {
	Parent lunatic.Process[string]
	Addr   string
	// set for TLS
	Roots []byte
}

var (
	// pinger connects, writes "ping" and reports the 4 byte answer to its parent.
	pinger = lunatic.NewEntry(func(d dial, _ lunatic.Mailbox[int]) {
		var conn io.ReadWriteCloser
		var err error
		if d.Roots != nil {
			conn, err = net.ConnectTLSTimeout(d.Parent.Instance(), d.Addr, time.Second, d.Roots)
		} else {
			conn, err = net.ConnectTimeout(d.Parent.Instance(), d.Addr, time.Second)
		}
		if err != nil {
			d.Parent.Send("connect: " + err.Error())
			return
		}
		defer conn.Close()
		if _, err := conn.Write([]byte("ping")); err != nil {
			d.Parent.Send("write: " + err.Error())
			return
		}
		buf := make([]byte, 4)
		if _, err := io.ReadFull(conn, buf); err != nil {
			d.Parent.Send("read: " + err.Error())
			return
		}
		d.Parent.Send(string(buf))
	})

	// echoer answers one read on a stream it was handed.
	echoer = lunatic.NewEntry(func(s tuple.T2[lunatic.Process[string], net.TCPStream], _ lunatic.Mailbox[int]) {
		stream := s.B
		defer stream.Close()
		buf := make([]byte, 4)
		if _, err := io.ReadFull(&stream, buf); err != nil {
			s.A.Send("echo: " + err.Error())
			return
		}
		_, _ = stream.Write(buf)
	})
)

func goEchoServer(t *testing.T) string {
	t.Helper()
	ln, err := nettest.NewLocalListener("tcp")
	assert.NilError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_, _ = io.Copy(conn, conn)
			}()
		}
	}()
	return ln.Addr().String()
}

func TestConnect_TalksToOutsideListener(t *testing.T) {
	addr := goEchoServer(t)
	var echoed string

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		conn, err := net.Connect(inst, addr)
		if !assert.Check(t, err) {
			return
		}
		defer conn.Close()
		_, err = conn.Write([]byte("hello"))
		assert.Check(t, err)
		assert.Check(t, conn.Flush())
		buf := make([]byte, 5)
		_, err = io.ReadFull(conn, buf)
		assert.Check(t, err)
		echoed = string(buf)
	})

	assert.Equal(t, echoed, "hello")
}

func TestBind_AcceptsConnectionFromAnotherProcess(t *testing.T) {
	var got, reply string
	var peerValid bool

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ln, err := net.Bind(inst, "127.0.0.1:0")
		if !assert.Check(t, err) {
			return
		}
		defer ln.Close()
		addr, err := ln.LocalAddr()
		if !assert.Check(t, err) {
			return
		}
		_, err = lunatic.Spawn(inst, pinger, dial{Parent: lunatic.This[string](inst), Addr: addr.String()})
		if !assert.Check(t, err) {
			return
		}

		conn, peer, err := ln.Accept()
		if !assert.Check(t, err) {
			return
		}
		defer conn.Close()
		peerValid = peer.IsValid()
		buf := make([]byte, 4)
		_, err = io.ReadFull(conn, buf)
		assert.Check(t, err)
		got = string(buf)
		_, err = conn.Write([]byte("pong"))
		assert.Check(t, err)

		reply, err = lunatic.NewMailbox[string](inst).ReceiveTimeout(time.Second)
		assert.Check(t, err)
	})

	assert.Equal(t, got, "ping")
	assert.Equal(t, reply, "pong")
	assert.Assert(t, peerValid)
}

func TestTCPStream_HandedToAnotherProcess(t *testing.T) {
	var reply string

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		self := lunatic.This[string](inst)
		ln, err := net.Bind(inst, "127.0.0.1:0")
		if !assert.Check(t, err) {
			return
		}
		defer ln.Close()
		addr, _ := ln.LocalAddr()
		_, err = lunatic.Spawn(inst, pinger, dial{Parent: self, Addr: addr.String()})
		if !assert.Check(t, err) {
			return
		}

		conn, _, err := ln.Accept()
		if !assert.Check(t, err) {
			return
		}
		_, err = lunatic.Spawn(inst, echoer, tuple.New2(self, *conn))
		assert.Check(t, err)
		// the handler holds its own clone
		assert.Check(t, conn.Close())

		reply, err = lunatic.NewMailbox[string](inst).ReceiveTimeout(time.Second)
		assert.Check(t, err)
	})

	assert.Equal(t, reply, "ping")
}

func TestTCPStream_ClonesShareTheConnection(t *testing.T) {
	addr := goEchoServer(t)
	var echoed string

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		conn, err := net.Connect(inst, addr)
		if !assert.Check(t, err) {
			return
		}
		clone := conn.Clone()
		assert.Check(t, conn.Close())
		defer clone.Close()

		_, err = clone.Write([]byte("still open"))
		assert.Check(t, err)
		buf := make([]byte, 10)
		_, err = io.ReadFull(clone, buf)
		assert.Check(t, err)
		echoed = string(buf)
	})

	assert.Equal(t, echoed, "still open")
}

func TestRead_TimesOut(t *testing.T) {
	ln, err := nettest.NewLocalListener("tcp")
	assert.NilError(t, err)
	defer ln.Close()
	held := make(chan gonet.Conn, 1)
	go func() {
		if conn, err := ln.Accept(); err == nil {
			held <- conn
		}
	}()
	var readErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		conn, err := net.Connect(inst, ln.Addr().String())
		if !assert.Check(t, err) {
			return
		}
		defer conn.Close()
		conn.SetReadTimeout(20 * time.Millisecond)
		_, readErr = conn.Read(make([]byte, 8))
	})
	if conn := <-held; conn != nil {
		conn.Close()
	}

	var nerr *net.Error
	assert.Assert(t, errors.As(readErr, &nerr))
	assert.Assert(t, nerr.Timeout())
	assert.Equal(t, nerr.Op, "read")
	assert.ErrorIs(t, readErr, lunatic.ErrTimeout)
}

func TestRead_EOFWhenPeerCloses(t *testing.T) {
	ln, err := nettest.NewLocalListener("tcp")
	assert.NilError(t, err)
	defer ln.Close()
	go func() {
		if conn, err := ln.Accept(); err == nil {
			conn.Close()
		}
	}()
	var readErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		conn, err := net.Connect(inst, ln.Addr().String())
		if !assert.Check(t, err) {
			return
		}
		defer conn.Close()
		conn.SetReadTimeout(time.Second)
		_, readErr = conn.Read(make([]byte, 8))
	})

	assert.Assert(t, is.ErrorIs(readErr, io.EOF))
}

func TestBind_AddressInUse(t *testing.T) {
	var bindErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ln, err := net.Bind(inst, "127.0.0.1:0")
		if !assert.Check(t, err) {
			return
		}
		defer ln.Close()
		addr, _ := ln.LocalAddr()
		_, bindErr = net.Bind(inst, addr.String())
	})

	var nerr *net.Error
	assert.Assert(t, errors.As(bindErr, &nerr))
	assert.Equal(t, nerr.Op, "bind")
	assert.Assert(t, !nerr.Timeout())
	var lerr *lunatic.LunaticError
	assert.Assert(t, errors.As(bindErr, &lerr))
	assert.Assert(t, lerr.Error() != "")
}

func TestClosedResourcesFail(t *testing.T) {
	addr := goEchoServer(t)
	var acceptErr, readErr, writeErr, closeErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ln, err := net.Bind(inst, "127.0.0.1:0")
		if !assert.Check(t, err) {
			return
		}
		assert.Check(t, ln.Close())
		_, _, acceptErr = ln.Accept()

		conn, err := net.Connect(inst, addr)
		if !assert.Check(t, err) {
			return
		}
		assert.Check(t, conn.Close())
		_, readErr = conn.Read(make([]byte, 1))
		_, writeErr = conn.Write([]byte("x"))
		closeErr = conn.Close()
	})

	assert.ErrorIs(t, acceptErr, net.ErrClosed)
	assert.ErrorIs(t, readErr, net.ErrClosed)
	assert.ErrorIs(t, writeErr, net.ErrClosed)
	assert.NilError(t, closeErr)
}

func TestResolve(t *testing.T) {
	var addrs []uint16
	var badErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		found, err := net.Resolve(inst, "localhost:8080")
		if !assert.Check(t, err) {
			return
		}
		for _, a := range found {
			addrs = append(addrs, a.Port())
		}
		_, badErr = net.ResolveTimeout(inst, "no-port-here", time.Second)
	})

	assert.Assert(t, len(addrs) > 0)
	for _, port := range addrs {
		assert.Equal(t, port, uint16(8080))
	}
	var nerr *net.Error
	assert.Assert(t, errors.As(badErr, &nerr))
	assert.Equal(t, nerr.Op, "resolve")
	assert.Equal(t, nerr.Addr, "no-port-here")
}

func TestTLS_HandshakeAndExchange(t *testing.T) {
	certPEM, keyPEM := selfSigned(t)
	var got, reply string

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ln, err := net.BindTLS(inst, "127.0.0.1:0", certPEM, keyPEM)
		if !assert.Check(t, err) {
			return
		}
		defer ln.Close()
		addr, _ := ln.LocalAddr()
		_, err = lunatic.Spawn(inst, pinger, dial{Parent: lunatic.This[string](inst), Addr: addr.String(), Roots: certPEM})
		if !assert.Check(t, err) {
			return
		}

		conn, _, err := ln.Accept()
		if !assert.Check(t, err) {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4)
		_, err = io.ReadFull(conn, buf)
		assert.Check(t, err)
		got = string(buf)
		_, err = conn.Write([]byte("pong"))
		assert.Check(t, err)

		reply, err = lunatic.NewMailbox[string](inst).ReceiveTimeout(2 * time.Second)
		assert.Check(t, err)
	})

	assert.Equal(t, got, "ping")
	assert.Equal(t, reply, "pong")
}

func TestTLS_UntrustedServerIsRejected(t *testing.T) {
	certPEM, keyPEM := selfSigned(t)
	otherPEM, _ := selfSigned(t)
	var reply string

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ln, err := net.BindTLS(inst, "127.0.0.1:0", certPEM, keyPEM)
		if !assert.Check(t, err) {
			return
		}
		defer ln.Close()
		addr, _ := ln.LocalAddr()
		_, err = lunatic.Spawn(inst, pinger, dial{Parent: lunatic.This[string](inst), Addr: addr.String(), Roots: otherPEM})
		if !assert.Check(t, err) {
			return
		}
		conn, _, err := ln.Accept()
		if err == nil {
			conn.SetReadTimeout(time.Second)
			_, _ = conn.Read(make([]byte, 1))
			conn.Close()
		}
		reply, err = lunatic.NewMailbox[string](inst).ReceiveTimeout(2 * time.Second)
		assert.Check(t, err)
	})

	assert.Assert(t, is.Contains(reply, "connect: lunatic/net: connect"))
}

func TestStreams_OnlyTravelWithBincode(t *testing.T) {
	_, err := json.Marshal(net.TCPStream{})
	assert.ErrorIs(t, err, serializer.ErrResourcesUnsupported)

	_, err = json.Marshal(net.TLSStream{})
	assert.ErrorIs(t, err, serializer.ErrResourcesUnsupported)
}

// selfSigned returns a certificate for 127.0.0.1 and its key, both PEM encoded.
func selfSigned(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	assert.NilError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: "lunatic test"},
		IPAddresses:           []gonet.IP{gonet.IPv4(127, 0, 0, 1)},
		DNSNames:              []string{"localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	assert.NilError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	assert.NilError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
}
