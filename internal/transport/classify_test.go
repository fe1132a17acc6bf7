package transport

import (
	"syscall"
	"testing"

	"github.com/arnovale/stubdns/internal/rerrors"
)

func TestIsTransientNil(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error must not be transient")
	}
}

func TestIsTransientTimeout(t *testing.T) {
	err := &rerrors.TimeoutErr{Operation: "udp read", Err: syscall.ETIMEDOUT}
	if !IsTransient(err) {
		t.Error("expected TimeoutErr to be transient")
	}
}

func TestIsTransientPermanent(t *testing.T) {
	err := &rerrors.PermanentTransportErr{Operation: "dial", Err: syscall.EAFNOSUPPORT}
	if IsTransient(err) {
		t.Error("expected PermanentTransportErr to be non-transient")
	}
}

func TestIsTransientConnectionReset(t *testing.T) {
	if !IsTransient(syscall.ECONNRESET) {
		t.Error("expected ECONNRESET to be transient")
	}
}

func TestIsTransientAddressFamilyUnsupported(t *testing.T) {
	if IsTransient(syscall.EAFNOSUPPORT) {
		t.Error("expected EAFNOSUPPORT to be non-transient")
	}
}
