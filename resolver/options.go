package resolver

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/arnovale/stubdns/internal/rerrors"
)

// Option is a functional option for configuring a Client.
//
// Example:
//
//	c, err := resolver.New([]string{"8.8.8.8:53"}, resolver.WithTimeout(2*time.Second))
type Option func(*Client) error

// WithTCPFallback controls whether a truncated UDP response (TC=1)
// triggers one TCP re-attempt. Default: true.
func WithTCPFallback(enabled bool) Option {
	return func(c *Client) error {
		c.useTCPFallback = enabled
		return nil
	}
}

// WithTCPOnly skips UDP entirely and always queries over TCP. Default:
// false.
func WithTCPOnly(enabled bool) Option {
	return func(c *Client) error {
		c.useTCPOnly = enabled
		return nil
	}
}

// WithAuditTrail enables the per-query audit trail attached to every
// response obtained from a name server (Response.AuditTrail). Returned
// errors do not carry the trail, and a response served from the cache has
// an empty one. Default: false.
func WithAuditTrail(enabled bool) Option {
	return func(c *Client) error {
		c.enableAuditTrail = enabled
		return nil
	}
}

// WithRecursionDesired controls the RD bit on outbound queries. Default:
// true.
func WithRecursionDesired(enabled bool) Option {
	return func(c *Client) error {
		c.recursionDesired = enabled
		return nil
	}
}

// WithRetries sets the number of additional attempts per server beyond
// the first (retries=0 means exactly one attempt). Default: 5.
func WithRetries(retries uint32) Option {
	return func(c *Client) error {
		c.retries = retries
		return nil
	}
}

// WithThrowErrors controls whether a non-NOERROR RCODE is surfaced as a
// failure rather than returned as a response. Default: false.
func WithThrowErrors(enabled bool) Option {
	return func(c *Client) error {
		c.throwErrors = enabled
		return nil
	}
}

// WithCache toggles the response cache. Default: true.
func WithCache(enabled bool) Option {
	return func(c *Client) error {
		c.useCache = enabled
		return nil
	}
}

// WithMinCacheTTL raises any positive computed TTL to at least floor,
// and allows a zero-TTL response to be cached at floor. Default: 0 (no
// floor).
func WithMinCacheTTL(floor time.Duration) Option {
	return func(c *Client) error {
		if floor < 0 {
			return &rerrors.ValidationErr{Field: "min_cache_ttl", Value: floor, Message: "must be non-negative"}
		}
		c.minCacheTTL = floor
		return nil
	}
}

// WithRandomServer toggles round-robin rotation of the server ordering
// across successive queries. Default: true.
func WithRandomServer(enabled bool) Option {
	return func(c *Client) error {
		c.useRandomServer = enabled
		return nil
	}
}

// WithContinueOnDNSError controls whether a non-NOERROR response moves on
// to the next server instead of stopping at the first one reached.
// Default: true.
func WithContinueOnDNSError(enabled bool) Option {
	return func(c *Client) error {
		c.continueOnDNSError = enabled
		return nil
	}
}

// WithTimeout sets the per-attempt deadline. Must be positive; pass 0 to
// restore the default. Default: 5 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout < 0 {
			return &rerrors.ValidationErr{Field: "timeout", Value: timeout, Message: "must be positive or zero"}
		}
		if timeout == 0 {
			timeout = defaultTimeout
		}
		c.timeout = timeout
		return nil
	}
}

// WithEDNS toggles sending an EDNS(0) OPT record advertising
// udpPayloadSize on outbound queries. Passing 0 disables EDNS. Default:
// enabled, 4096 bytes.
func WithEDNS(udpPayloadSize uint16) Option {
	return func(c *Client) error {
		c.udpPayloadSize = udpPayloadSize
		return nil
	}
}

// WithLogger overrides the client's structured logger. Default: a
// discard logger, matching a library's obligation not to write to
// stderr unless asked.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}
