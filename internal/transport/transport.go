// Package transport implements the two wire transports a stub resolver can
// use to reach a name server: UDP datagram exchange and TCP length-prefixed
// exchange, behind a single contract so the query engine doesn't need to
// know which one it's driving.
package transport

import (
	"context"
	"time"
)

// Transport sends one request and waits for one matching response against a
// single server endpoint, honoring deadline. Implementations own whatever
// connection state they need (a fresh datagram socket per call for UDP, a
// pooled connection per endpoint for TCP) and must release it on every exit
// path, including ctx cancellation.
type Transport interface {
	Query(ctx context.Context, endpoint string, request []byte, deadline time.Time) ([]byte, error)
	Close() error
}
