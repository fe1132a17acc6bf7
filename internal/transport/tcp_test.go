package transport

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"
)

func serveOneTCPEcho(t *testing.T, ln net.Listener) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var lenPrefix [2]byte
		if _, err := conn.Read(lenPrefix[:]); err != nil {
			return
		}
		n := binary.BigEndian.Uint16(lenPrefix[:])
		body := make([]byte, n)
		if _, err := conn.Read(body); err != nil {
			return
		}

		conn.Write(lenPrefix[:])
		conn.Write(body)
	}()
}

func TestTCPTransportRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	serveOneTCPEcho(t, ln)

	tr := NewTCPTransport()
	defer tr.Close()

	request := []byte{0xAB, 0xCD, 0x00}
	resp, err := tr.Query(context.Background(), ln.Addr().String(), request, time.Now().Add(2*time.Second))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if string(resp) != string(request) {
		t.Errorf("got %v, want echoed %v", resp, request)
	}
}

func TestTCPTransportRejectsOversizedRequest(t *testing.T) {
	tr := NewTCPTransport()
	oversized := make([]byte, 0x10000)
	if _, err := tr.Query(context.Background(), "127.0.0.1:1", oversized, time.Now().Add(time.Second)); err == nil {
		t.Fatal("expected error for request exceeding 65535 bytes")
	}
}

// serveOneTCPEchoDelayed behaves like serveOneTCPEcho but holds the
// response until release is closed, letting a test pin one endpoint's
// query in flight.
func serveOneTCPEchoDelayed(t *testing.T, ln net.Listener, release <-chan struct{}) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var lenPrefix [2]byte
		if _, err := conn.Read(lenPrefix[:]); err != nil {
			return
		}
		n := binary.BigEndian.Uint16(lenPrefix[:])
		body := make([]byte, n)
		if _, err := conn.Read(body); err != nil {
			return
		}

		<-release
		conn.Write(lenPrefix[:])
		conn.Write(body)
	}()
}

// TestTCPTransportDoesNotSerializeAcrossEndpoints pins the per-endpoint
// locking fix: a slow query to one endpoint must not block a concurrent
// query to a different endpoint on the same TCPTransport.
func TestTCPTransportDoesNotSerializeAcrossEndpoints(t *testing.T) {
	slowLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer slowLn.Close()
	release := make(chan struct{})
	serveOneTCPEchoDelayed(t, slowLn, release)

	fastLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer fastLn.Close()
	serveOneTCPEcho(t, fastLn)

	tr := NewTCPTransport()
	defer tr.Close()

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		_, _ = tr.Query(context.Background(), slowLn.Addr().String(), []byte{1, 2}, time.Now().Add(5*time.Second))
	}()

	// Give the slow query time to reach the server and block there.
	time.Sleep(50 * time.Millisecond)

	fastDone := make(chan error, 1)
	go func() {
		_, err := tr.Query(context.Background(), fastLn.Addr().String(), []byte{3, 4}, time.Now().Add(2*time.Second))
		fastDone <- err
	}()

	select {
	case err := <-fastDone:
		if err != nil {
			t.Fatalf("fast query: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("fast query to a different endpoint was blocked by the slow endpoint's in-flight query")
	}

	close(release)
	<-slowDone
}

func TestTCPTransportReportsDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close() // nothing listening now

	tr := NewTCPTransport()
	if _, err := tr.Query(context.Background(), addr, []byte{1, 2}, time.Now().Add(200*time.Millisecond)); err == nil {
		t.Fatal("expected dial error against closed listener")
	}
}
