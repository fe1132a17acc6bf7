package transport

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/arnovale/stubdns/internal/rerrors"
)

// IsTransient reports whether err represents a condition the query engine
// should retry against the same server (connection reset, host
// unreachable, connection refused after the first packet, and timeouts),
// as opposed to a permanent condition (address family unsupported) that
// should disable the server and move on.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var timeoutErr *rerrors.TimeoutErr
	if errors.As(err, &timeoutErr) {
		return true
	}
	var transientErr *rerrors.TransientTransportErr
	if errors.As(err, &transientErr) {
		return true
	}
	var permanentErr *rerrors.PermanentTransportErr
	if errors.As(err, &permanentErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	if errors.Is(err, syscall.EAFNOSUPPORT) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Default to transient: an unrecognized transport failure is more
	// likely a blip worth retrying than a permanent server defect.
	return true
}
