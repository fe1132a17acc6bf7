// Package resolver is the public API: a stub DNS resolver client that
// queries a configured pool of name servers over UDP (with optional TCP
// fallback) or TCP, applying response caching, per-server retries, and
// failover across the pool.
package resolver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/arnovale/stubdns/internal/audit"
	"github.com/arnovale/stubdns/internal/cache"
	"github.com/arnovale/stubdns/internal/pool"
	"github.com/arnovale/stubdns/internal/rerrors"
	"github.com/arnovale/stubdns/internal/rlog"
	"github.com/arnovale/stubdns/internal/transport"
	"github.com/arnovale/stubdns/internal/wire"
)

const (
	defaultTimeout = 5 * time.Second
	defaultRetries = 5
)

// Client resolves DNS questions against a pool of name servers.
// A Client is safe for concurrent use by multiple goroutines: queries
// share the cache and server pool but carry no per-query shared state.
type Client struct {
	pool   *pool.Pool
	cache  *cache.Cache
	udp    transport.Transport
	tcp    transport.Transport
	prober *pool.Prober
	sf     singleflight.Group
	ids    *wire.IDGenerator

	logger zerolog.Logger

	useTCPFallback     bool
	useTCPOnly         bool
	enableAuditTrail   bool
	recursionDesired   bool
	retries            uint32
	throwErrors        bool
	useCache           bool
	minCacheTTL        time.Duration
	useRandomServer    bool
	continueOnDNSError bool
	timeout            time.Duration
	udpPayloadSize     uint16
}

// New creates a Client querying servers (host:port endpoints), applying
// opts over the defaults: TCP fallback on, recursion desired, 5 retries,
// 5-second timeout, cache and round-robin rotation on, continue-on-error
// on, EDNS advertising a 4096-byte UDP payload.
func New(servers []string, opts ...Option) (*Client, error) {
	if len(servers) == 0 {
		return nil, &rerrors.ValidationErr{Field: "servers", Value: servers, Message: "must supply at least one name server"}
	}

	c := &Client{
		udp:                transport.NewUDPTransport(),
		tcp:                transport.NewTCPTransport(),
		ids:                wire.NewIDGenerator(),
		logger:             rlog.Discard(),
		useTCPFallback:     true,
		recursionDesired:   true,
		retries:            defaultRetries,
		useCache:           true,
		useRandomServer:    true,
		continueOnDNSError: true,
		timeout:            defaultTimeout,
		udpPayloadSize:     wire.DefaultUDPPayloadSize,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.cache = cache.New(c.useCache)
	c.pool = pool.New(servers, c.useRandomServer)
	c.prober = pool.NewProber(c.pool, c.probeServer)
	c.pool.OnProbeDue(c.prober.Tick)

	return c, nil
}

// Close releases any pooled TCP connections. The cache and server pool
// need no explicit teardown.
func (c *Client) Close() error {
	_ = c.udp.Close()
	return c.tcp.Close()
}

// question is the internal (name, type, class) triple threaded through
// resolution; Question in the pool package is the pared-down form the
// health prober replays.
type question struct {
	name  string
	qtype uint16
	class uint16
}

// Query resolves name/qtype/class, consulting the cache first and
// collapsing concurrent identical queries onto a single transport
// exchange via singleflight.
//
// singleflight shares one in-flight resolution across every caller with
// the same fingerprint, so the underlying resolve runs under its own
// background context rather than any one caller's ctx — otherwise
// whichever caller happened to start the shared call would have the
// power to cancel every other caller waiting on it. Each caller here
// still races its own ctx against the shared result independently, so
// cancelling one caller's ctx yields that caller's Cancelled promptly
// without disturbing the others or the server's enabled state.
func (c *Client) Query(ctx context.Context, name string, qtype, class uint16) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, &rerrors.CancelledErr{Err: ctx.Err()}
	default:
	}

	fingerprint := cache.Fingerprint(name, qtype, class)

	if c.useCache {
		if msg, ok := c.cache.Get(fingerprint); ok {
			return newResponse(msg, "", ""), nil
		}
	}

	q := question{name: name, qtype: qtype, class: class}

	type sfResult struct {
		resp *Response
		err  error
	}
	done := make(chan sfResult, 1)
	go func() {
		v, err, _ := c.sf.Do(fingerprint, func() (interface{}, error) {
			return c.resolve(context.Background(), q)
		})
		if err != nil {
			done <- sfResult{err: err}
			return
		}
		done <- sfResult{resp: v.(*Response)} //nolint:forcetypeassert // only this closure populates the singleflight group
	}()

	select {
	case <-ctx.Done():
		return nil, &rerrors.CancelledErr{Err: ctx.Err()}
	case r := <-done:
		return r.resp, r.err
	}
}

// Result is delivered on the channel QueryAsync returns.
type Result struct {
	Response *Response
	Err      error
}

// QueryAsync resolves name/qtype/class without blocking the caller,
// delivering exactly one Result on the returned channel. Cancelling ctx
// surfaces a Cancelled error on the channel instead of blocking.
func (c *Client) QueryAsync(ctx context.Context, name string, qtype, class uint16) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		resp, err := c.Query(ctx, name, qtype, class)
		out <- Result{Response: resp, Err: err}
	}()
	return out
}

// QueryReverse derives the in-addr.arpa (IPv4) or ip6.arpa (IPv6) name for
// ip and queries it for PTR records.
func (c *Client) QueryReverse(ctx context.Context, ip net.IP) (*Response, error) {
	name, err := reverseName(ip)
	if err != nil {
		return nil, err
	}
	return c.Query(ctx, name, wire.TypePTR, wire.ClassIN)
}

func (c *Client) resolve(ctx context.Context, q question) (*Response, error) {
	var trail *audit.Trail
	if c.enableAuditTrail {
		trail = audit.New(len(c.pool.Servers()))
	}
	return c.attempt(ctx, q, c.useTCPOnly, trail)
}

// attempt runs the per-server retry/failover loop once. forceTCP selects
// the TCP transport either because tcp_only is set or because a prior UDP
// attempt in this same resolution saw TC=1 and triggered the fallback
// restart (attempt calls itself recursively in that case, carrying the
// same trail and not counting the restart against retries).
func (c *Client) attempt(ctx context.Context, q question, forceTCP bool, trail *audit.Trail) (*Response, error) {
	id := c.ids.Next()

	request, err := wire.BuildQuery(id, q.name, q.qtype, c.recursionDesired, c.udpPayloadSize)
	if err != nil {
		return nil, err
	}

	tr := c.udp
	if forceTCP {
		tr = c.tcp
	}

	servers := c.pool.NextServers()

	var (
		lastDNSErrorMsg    *wire.Message
		lastDNSErrorServer string
		lastException      error
		tried              []string
	)

	for _, server := range servers {
		select {
		case <-ctx.Done():
			return nil, &rerrors.CancelledErr{Err: ctx.Err()}
		default:
		}
		tried = append(tried, server.Endpoint)
		c.logger.Debug().Str("server", server.Endpoint).Str("name", q.name).Msg("attempting server")

		for tries := uint32(0); tries <= c.retries && server.Enabled(); {
			select {
			case <-ctx.Done():
				return nil, &rerrors.CancelledErr{Err: ctx.Err()}
			default:
			}
			tries++

			deadline := time.Now().Add(c.timeout)
			respBytes, err := tr.Query(ctx, server.Endpoint, request, deadline)
			if err != nil {
				var cancelled *rerrors.CancelledErr
				if errors.As(err, &cancelled) {
					return nil, err
				}
				var permanent *rerrors.PermanentTransportErr
				if errors.As(err, &permanent) {
					lastException = err
					c.logger.Warn().Str("server", server.Endpoint).Err(err).Msg("disabling server after permanent transport error")
					c.pool.Disable(server)
					break
				}
				// Timeout or transient transport error: disable (a
				// no-op on a single-server pool) and retry the same
				// server while the loop condition allows it.
				lastException = err
				c.logger.Debug().Str("server", server.Endpoint).Uint32("tries", tries).Err(err).Msg("retrying after transient error")
				c.pool.Disable(server)
				continue
			}

			msg, parseErr := wire.ParseMessage(respBytes)
			if parseErr != nil {
				lastException = parseErr
				c.logger.Warn().Str("server", server.Endpoint).Err(parseErr).Msg("disabling server after wire-format error")
				c.pool.Disable(server)
				break
			}
			if msg.Header.ID != id {
				lastException = &rerrors.WireFormatErr{Operation: "query", Message: "response id mismatch"}
				c.logger.Warn().Str("server", server.Endpoint).Msg("disabling server after response id mismatch")
				c.pool.Disable(server)
				break
			}
			if len(msg.Questions) > 0 {
				got := msg.Questions[0]
				if !wire.EqualFoldASCII(got.Name, q.name) || got.Type != q.qtype || got.Class != q.class {
					lastException = &rerrors.WireFormatErr{Operation: "query", Message: "response question mismatch"}
					c.logger.Warn().Str("server", server.Endpoint).Msg("disabling server after response question mismatch")
					c.pool.Disable(server)
					break
				}
			}

			if msg.Header.Truncated() && !forceTCP && c.useTCPFallback {
				if trail != nil {
					trail.Note("Truncated, retrying in TCP mode.")
				}
				return c.attempt(ctx, q, true, trail)
			}

			if trail != nil {
				trail.RecordResponse(msg)
			}

			negotiated := stripOPT(msg)
			server.SetNegotiatedUDPSize(negotiated)
			server.MarkSuccess(pool.QuestionFromFingerprint(q.name, q.qtype, q.class))

			rcode := msg.Header.RCode()
			if rcode != wire.RCodeNoError && (c.throwErrors || c.continueOnDNSError) {
				lastDNSErrorMsg = msg
				lastDNSErrorServer = server.Endpoint
				break
			}

			if trail != nil {
				trail.Finish(server.Endpoint, len(respBytes))
			}
			if c.useCache {
				if ttl, ok := cache.ComputeTTL(msg, c.minCacheTTL); ok {
					c.cache.Put(cache.Fingerprint(q.name, q.qtype, q.class), msg, ttl)
				}
			}
			return newResponse(msg, server.Endpoint, trailString(trail)), nil
		}
	}

	if lastDNSErrorMsg != nil {
		if c.throwErrors {
			return nil, &rerrors.DNSResponseErr{RCode: lastDNSErrorMsg.Header.RCode(), Name: q.name}
		}
		if trail != nil {
			trail.Finish(lastDNSErrorServer, 0)
		}
		return newResponse(lastDNSErrorMsg, lastDNSErrorServer, trailString(trail)), nil
	}
	if lastException != nil {
		return nil, &rerrors.ConnectionErr{Err: lastException}
	}
	return nil, &rerrors.ConnectionTimeoutErr{Servers: tried}
}

// probeServer issues question against server via UDP, bypassing the
// cache entirely, for the health prober.
func (c *Client) probeServer(ctx context.Context, server *pool.NameServer, q pool.Question) error {
	id := c.ids.Next()
	request, err := wire.BuildQuery(id, q.Name, q.Type, c.recursionDesired, c.udpPayloadSize)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(c.timeout)
	respBytes, err := c.udp.Query(ctx, server.Endpoint, request, deadline)
	if err != nil {
		return err
	}
	if _, err := wire.ParseMessage(respBytes); err != nil {
		return err
	}
	c.logger.Info().Str("server", server.Endpoint).Msg("health probe succeeded, re-enabling server")
	return nil
}

// stripOPT removes the EDNS(0) OPT record from msg's Additionals, if
// present, and returns the advertised UDP payload size it carried.
func stripOPT(msg *wire.Message) uint16 {
	for i, rr := range msg.Additionals {
		if rr.Type == wire.TypeOPT {
			size := rr.Class
			msg.Additionals = append(msg.Additionals[:i], msg.Additionals[i+1:]...)
			return size
		}
	}
	return 0
}

func trailString(trail *audit.Trail) string {
	if trail == nil {
		return ""
	}
	return trail.String()
}
