// Package pool holds the configured name servers a client queries against,
// tracking each server's enabled/disabled health bit and handing out
// per-query server orderings, including the round-robin rotation and
// degraded-mode fallback the query engine relies on.
package pool

import (
	"sync"

	"github.com/arnovale/stubdns/internal/wire"
)

// NameServer is one configured upstream resolver endpoint (host:port).
type NameServer struct {
	mu sync.Mutex

	Endpoint string

	enabled bool

	// lastSuccessfulQuestion is replayed by the health prober once a
	// server is disabled, so re-probing asks the same thing that last
	// worked rather than something arbitrary.
	lastSuccessfulQuestion *Question

	// negotiatedUDPSize is the UDP payload size this server last
	// advertised in an EDNS(0) OPT record, captured off a response
	// before the engine strips the OPT record from what it returns.
	negotiatedUDPSize uint16
}

// SetNegotiatedUDPSize records the UDP payload size this server last
// advertised via EDNS(0). A size of 0 means the server didn't include an
// OPT record.
func (s *NameServer) SetNegotiatedUDPSize(size uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.negotiatedUDPSize = size
}

// NegotiatedUDPSize returns the last advertised UDP payload size, or 0 if
// none has been recorded.
func (s *NameServer) NegotiatedUDPSize() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.negotiatedUDPSize
}

// Question is the minimal (name, type, class) triple the prober needs to
// replay a server's last successful query.
type Question struct {
	Name  string
	Type  uint16
	Class uint16
}

// Enabled reports the server's current health bit.
func (s *NameServer) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// MarkSuccess re-enables the server and records question as its last
// successful query, for the health prober to replay later.
func (s *NameServer) MarkSuccess(question Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
	s.lastSuccessfulQuestion = &question
}

// LastSuccessfulQuestion returns the question to replay when probing this
// server, or nil if it has never succeeded.
func (s *NameServer) LastSuccessfulQuestion() *Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSuccessfulQuestion
}

// Pool holds an ordered sequence of name servers and hands out the
// per-query ordering the engine iterates over.
type Pool struct {
	mu           sync.Mutex
	servers      []*NameServer
	useRandom    bool
	lastProbeGen func() // invoked, if non-nil, on every NextServers call; the callee decides whether a probe cycle is due
}

// New creates a pool from endpoints, all starting enabled. useRandomServer
// toggles whether NextServers rotates the ordering round-robin across
// calls (the spec's name notwithstanding, this yields deterministic
// rotation, not per-attempt randomness).
func New(endpoints []string, useRandomServer bool) *Pool {
	servers := make([]*NameServer, len(endpoints))
	for i, ep := range endpoints {
		servers[i] = &NameServer{Endpoint: ep, enabled: true}
	}
	return &Pool{servers: servers, useRandom: useRandomServer}
}

// OnProbeDue registers a callback NextServers invokes (outside the pool's
// own lock) whenever it is called, letting the health prober decide
// independently whether its own 30-second gate is due. Kept separate from
// the pool's mutex so a slow probe cycle never blocks ordinary queries.
func (p *Pool) OnProbeDue(fn func()) {
	p.mu.Lock()
	p.lastProbeGen = fn
	p.mu.Unlock()
}

// NextServers returns the snapshot of servers to try for one logical
// query, applying the degraded-mode and rotation rules:
//
//  1. A single-server pool always returns that server.
//  2. Otherwise the enabled subset is returned; if none are enabled, every
//     server is returned (degraded mode) so the caller keeps trying rather
//     than failing immediately.
//  3. If random rotation is enabled, the pool's own ordering is rotated by
//     one position (dequeue front, enqueue back) after this call's snapshot
//     is taken, so the first call starts at the first configured server and
//     repeated calls walk the servers round-robin.
func (p *Pool) NextServers() []*NameServer {
	p.mu.Lock()
	snapshot := make([]*NameServer, len(p.servers))
	copy(snapshot, p.servers)
	if len(p.servers) > 1 && p.useRandom {
		p.servers = append(p.servers[1:], p.servers[0])
	}
	probeFn := p.lastProbeGen
	p.mu.Unlock()

	if probeFn != nil {
		probeFn()
	}

	if len(snapshot) <= 1 {
		return snapshot
	}

	enabled := make([]*NameServer, 0, len(snapshot))
	for _, s := range snapshot {
		if s.Enabled() {
			enabled = append(enabled, s)
		}
	}
	if len(enabled) == 0 {
		return snapshot
	}
	return enabled
}

// Disable marks server unhealthy, unless the pool has only one server: a
// single-server pool is never disabled, since the engine must keep trying
// the only endpoint it has.
func (p *Pool) Disable(server *NameServer) {
	p.mu.Lock()
	count := len(p.servers)
	p.mu.Unlock()

	if count <= 1 {
		return
	}
	server.mu.Lock()
	server.enabled = false
	server.mu.Unlock()
}

// Servers returns every configured server, regardless of health, for the
// health prober to scan.
func (p *Pool) Servers() []*NameServer {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot := make([]*NameServer, len(p.servers))
	copy(snapshot, p.servers)
	return snapshot
}

// QuestionFromFingerprint is a convenience constructor used by the query
// engine when recording a successful attempt, canonicalizing the name the
// same way the cache does.
func QuestionFromFingerprint(name string, qtype, class uint16) Question {
	return Question{Name: wire.LowerASCII(name), Type: qtype, Class: class}
}
