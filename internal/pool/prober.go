package pool

import (
	"context"
	"sync/atomic"
	"time"
)

// probeInterval is the minimum spacing between probe cycles (spec: "at
// most once every 30 seconds").
const probeInterval = 30 * time.Second

// probeDeadline bounds one whole probe cycle, across every disabled
// server it re-checks.
const probeDeadline = 60 * time.Second

// ProbeFunc issues question against server and reports whether it
// succeeded. The prober doesn't know how to build or send a DNS message
// itself; the query engine supplies this so the prober can stay ignorant
// of wire format and transport selection.
type ProbeFunc func(ctx context.Context, server *NameServer, question Question) error

// Prober re-checks disabled servers on a timer, bypassing the response
// cache, and re-enables any that answer successfully. It is safe to call
// Tick from multiple goroutines (e.g. once per NextServers call); only one
// probe cycle ever runs concurrently.
type Prober struct {
	pool    *Pool
	probe   ProbeFunc
	running int32 // atomic: 1 while a cycle is in flight
	lastRun int64 // atomic: unix nano of the last cycle's start
}

// NewProber creates a prober bound to pool, using probe to re-check a
// disabled server.
func NewProber(pool *Pool, probe ProbeFunc) *Prober {
	return &Prober{pool: pool, probe: probe}
}

// Tick runs one probe cycle if the 30-second gate has elapsed and no
// cycle is already running; otherwise it returns immediately. It is meant
// to be wired into Pool.OnProbeDue so every NextServers call offers the
// prober a chance to run without blocking the caller on the probe itself.
func (p *Prober) Tick() {
	now := time.Now().UnixNano()
	last := atomic.LoadInt64(&p.lastRun)
	if now-last < int64(probeInterval) {
		return
	}
	if !atomic.CompareAndSwapInt32(&p.running, 0, 1) {
		return
	}
	atomic.StoreInt64(&p.lastRun, now)

	go p.runCycle()
}

func (p *Prober) runCycle() {
	defer atomic.StoreInt32(&p.running, 0)

	ctx, cancel := context.WithTimeout(context.Background(), probeDeadline)
	defer cancel()

	for _, server := range p.pool.Servers() {
		if server.Enabled() {
			continue
		}
		question := server.LastSuccessfulQuestion()
		if question == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		// Errors are swallowed: a failed probe just leaves the server
		// disabled for another interval.
		if err := p.probe(ctx, server, *question); err == nil {
			server.MarkSuccess(*question)
		}
	}
}
