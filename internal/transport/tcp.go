package transport

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/arnovale/stubdns/internal/rerrors"
)

// endpointConn pairs a pooled connection with the mutex serializing access
// to it, so holding one endpoint's lock never blocks a query to another.
type endpointConn struct {
	mu   sync.Mutex
	conn net.Conn
}

// TCPTransport exchanges 16-bit-length-prefixed messages over TCP,
// keeping one pooled connection per endpoint. Per spec, a single
// connection must never carry two concurrent outstanding transactions
// without per-id demultiplexing; rather than build a demultiplexer this
// serializes access to each endpoint's own connection with a per-endpoint
// mutex, opening a fresh one on dial failure or framing error. The
// top-level mutex only ever guards the conns map lookup/insert, never a
// whole Query call, so concurrent queries to different endpoints never
// wait on each other.
type TCPTransport struct {
	mu    sync.Mutex
	conns map[string]*endpointConn
}

// NewTCPTransport returns a TCP transport with an empty connection pool.
func NewTCPTransport() *TCPTransport {
	return &TCPTransport{conns: make(map[string]*endpointConn)}
}

// Query writes request to endpoint's pooled connection (dialing one on
// first use or after a prior failure) with a 16-bit big-endian length
// prefix, then reads back one length-prefixed response.
func (t *TCPTransport) Query(ctx context.Context, endpoint string, request []byte, deadline time.Time) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, &rerrors.CancelledErr{Err: ctx.Err()}
	default:
	}

	if len(request) > 0xFFFF {
		return nil, &rerrors.WireFormatErr{Operation: "tcp query", Message: "request exceeds 65535 bytes, cannot length-prefix"}
	}

	ec := t.endpointFor(endpoint)
	ec.mu.Lock()
	defer ec.mu.Unlock()

	conn, err := t.connFor(ctx, ec, endpoint, deadline)
	if err != nil {
		return nil, err
	}

	if err := conn.SetDeadline(deadline); err != nil {
		t.dropConn(ec)
		return nil, &rerrors.TransientTransportErr{Operation: "tcp set deadline", Err: err}
	}

	var lenPrefix [2]byte
	binary.BigEndian.PutUint16(lenPrefix[:], uint16(len(request))) //nolint:gosec // bounded above
	if _, err := conn.Write(lenPrefix[:]); err != nil {
		t.dropConn(ec)
		return nil, classifyIOErr("tcp write length", err)
	}
	if _, err := conn.Write(request); err != nil {
		t.dropConn(ec)
		return nil, classifyIOErr("tcp write body", err)
	}

	if _, err := io.ReadFull(conn, lenPrefix[:]); err != nil {
		t.dropConn(ec)
		return nil, classifyIOErr("tcp read length", err)
	}
	respLen := binary.BigEndian.Uint16(lenPrefix[:])

	response := make([]byte, respLen)
	if _, err := io.ReadFull(conn, response); err != nil {
		t.dropConn(ec)
		return nil, classifyIOErr("tcp read body", err)
	}

	return response, nil
}

// endpointFor returns (creating if necessary) the endpointConn for
// endpoint. The map-level lock is held only long enough to look up or
// insert the entry, not for the lifetime of the connection's use.
func (t *TCPTransport) endpointFor(endpoint string) *endpointConn {
	t.mu.Lock()
	defer t.mu.Unlock()

	ec, ok := t.conns[endpoint]
	if !ok {
		ec = &endpointConn{}
		t.conns[endpoint] = ec
	}
	return ec
}

// connFor returns ec's pooled connection, dialing a new one if none
// exists. Callers must hold ec.mu. deadline bounds the dial itself, not
// just the subsequent read/write, so an unreachable endpoint can't stall
// past the caller's configured timeout waiting on the OS-level connect.
func (t *TCPTransport) connFor(ctx context.Context, ec *endpointConn, endpoint string, deadline time.Time) (net.Conn, error) {
	if ec.conn != nil {
		return ec.conn, nil
	}

	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(dialCtx, "tcp", endpoint)
	if err != nil {
		return nil, classifyDialErr("tcp dial", err)
	}
	ec.conn = conn
	return conn, nil
}

// dropConn closes and forgets ec's pooled connection; callers must hold
// ec.mu. A connection that errored is assumed unusable for subsequent
// queries and replaced on next use.
func (t *TCPTransport) dropConn(ec *endpointConn) {
	if ec.conn != nil {
		_ = ec.conn.Close()
		ec.conn = nil
	}
}

// Close closes every pooled connection.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	endpoints := make([]*endpointConn, 0, len(t.conns))
	for _, ec := range t.conns {
		endpoints = append(endpoints, ec)
	}
	t.conns = make(map[string]*endpointConn)
	t.mu.Unlock()

	var firstErr error
	for _, ec := range endpoints {
		ec.mu.Lock()
		if ec.conn != nil {
			if err := ec.conn.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			ec.conn = nil
		}
		ec.mu.Unlock()
	}
	return firstErr
}
