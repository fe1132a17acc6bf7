package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/arnovale/stubdns/internal/rerrors"
)

// UDPTransport exchanges one datagram per Query call against a name
// server. Each call dials a fresh socket: UDP "connections" are cheap and a
// short-lived socket per attempt keeps the transaction-id filtering local
// to one logical attempt rather than shared mutable state.
type UDPTransport struct{}

// NewUDPTransport returns a UDP transport. There is no persistent state to
// construct; the zero value is ready to use.
func NewUDPTransport() *UDPTransport {
	return &UDPTransport{}
}

// Query sends request to endpoint and waits for a datagram whose
// transaction id matches the one embedded in request's first two bytes,
// discarding mismatched datagrams until deadline (RFC 1035 §4.1.1's id
// field exists precisely to make this filtering possible).
func (t *UDPTransport) Query(ctx context.Context, endpoint string, request []byte, deadline time.Time) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, &rerrors.CancelledErr{Err: ctx.Err()}
	default:
	}

	if len(request) < 2 {
		return nil, &rerrors.WireFormatErr{Operation: "udp query", Message: "request shorter than transaction id"}
	}
	wantID := binary.BigEndian.Uint16(request[0:2])

	conn, err := net.Dial("udp", endpoint)
	if err != nil {
		return nil, classifyDialErr("udp dial", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, &rerrors.TransientTransportErr{Operation: "udp set deadline", Err: err}
	}

	if _, err := conn.Write(request); err != nil {
		return nil, classifyIOErr("udp write", err)
	}

	bufPtr := getBuffer()
	defer putBuffer(bufPtr)
	buf := *bufPtr

	for {
		select {
		case <-ctx.Done():
			return nil, &rerrors.CancelledErr{Err: ctx.Err()}
		default:
		}

		n, err := conn.Read(buf)
		if err != nil {
			return nil, classifyIOErr("udp read", err)
		}
		if n < 2 {
			continue
		}
		gotID := binary.BigEndian.Uint16(buf[0:2])
		if gotID != wantID {
			continue
		}

		response := make([]byte, n)
		copy(response, buf[:n])
		return response, nil
	}
}

// Close is a no-op: UDPTransport holds no persistent connection across
// calls.
func (t *UDPTransport) Close() error { return nil }

func classifyDialErr(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &rerrors.TimeoutErr{Operation: op, Err: err}
	}
	if errors.Is(err, syscall.EAFNOSUPPORT) {
		return &rerrors.PermanentTransportErr{Operation: op, Err: err}
	}
	return &rerrors.TransientTransportErr{Operation: op, Err: err}
}

func classifyIOErr(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &rerrors.TimeoutErr{Operation: op, Err: err}
	}
	return &rerrors.TransientTransportErr{Operation: op, Err: err}
}
