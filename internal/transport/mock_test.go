package transport

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockTransportRecordsCalls(t *testing.T) {
	m := NewMockTransport()
	m.ScriptResponse("127.0.0.1:53", []byte{1, 2, 3})

	resp, err := m.Query(context.Background(), "127.0.0.1:53", []byte{0xAB}, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if string(resp) != "\x01\x02\x03" {
		t.Errorf("got response %v, want [1 2 3]", resp)
	}

	calls := m.Calls()
	if len(calls) != 1 || calls[0].Endpoint != "127.0.0.1:53" {
		t.Fatalf("got calls %+v, want one call to 127.0.0.1:53", calls)
	}
}

func TestMockTransportFIFOPerEndpoint(t *testing.T) {
	m := NewMockTransport()
	m.ScriptResponse("a:53", []byte{1})
	m.ScriptResponse("a:53", []byte{2})

	first, _ := m.Query(context.Background(), "a:53", nil, time.Time{})
	second, _ := m.Query(context.Background(), "a:53", nil, time.Time{})

	if string(first) != "\x01" || string(second) != "\x02" {
		t.Errorf("got %v then %v, want FIFO order [1] then [2]", first, second)
	}
}

func TestMockTransportScriptedError(t *testing.T) {
	m := NewMockTransport()
	wantErr := errors.New("boom")
	m.ScriptError("a:53", wantErr)

	_, err := m.Query(context.Background(), "a:53", nil, time.Time{})
	if !errors.Is(err, wantErr) {
		t.Errorf("got err %v, want %v", err, wantErr)
	}
}

func TestMockTransportUnscriptedEndpointErrors(t *testing.T) {
	m := NewMockTransport()
	if _, err := m.Query(context.Background(), "unscripted:53", nil, time.Time{}); err == nil {
		t.Fatal("expected error for unscripted endpoint")
	}
}

func TestMockTransportClose(t *testing.T) {
	m := NewMockTransport()
	if m.Closed() {
		t.Fatal("expected not closed initially")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !m.Closed() {
		t.Error("expected closed after Close")
	}
}
