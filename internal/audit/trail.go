// Package audit renders the optional per-query trail: a human-readable
// transcript of one resolution attached to the returned response, toggled
// by the enable_audit_trail option. Errors returned by the resolver do not
// carry it.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/arnovale/stubdns/internal/wire"
)

// Trail accumulates lines for one logical query. It is append-only and
// not safe for concurrent writes from more than one goroutine, matching
// the engine's one-trail-per-query lifetime.
type Trail struct {
	lines    []string
	start    time.Time
	resolver int
}

// New starts a trail for a query about to try resolverCount configured
// servers.
func New(resolverCount int) *Trail {
	t := &Trail{start: time.Now(), resolver: resolverCount}
	t.lines = append(t.lines, fmt.Sprintf("resolvers configured: %d", resolverCount))
	return t
}

// Note appends a free-form inline note — used for retry boundaries and the
// TCP-upgrade marker, which don't fit the per-response summary shape.
func (t *Trail) Note(format string, args ...interface{}) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

// RecordResponse appends the standard per-response block: header summary,
// RCODE line, EDNS OPT line (if present), and dumps of all four sections.
func (t *Trail) RecordResponse(msg *wire.Message) {
	h := msg.Header
	t.lines = append(t.lines,
		fmt.Sprintf("header: id=%d qr=%t aa=%t tc=%t rd=%t ra=%t opcode=%d qdcount=%d ancount=%d nscount=%d arcount=%d",
			h.ID, h.IsResponse(), h.Authoritative(), h.Truncated(), h.RecursionDesired(), h.RecursionAvailable(),
			h.Opcode(), h.QDCount, h.ANCount, h.NSCount, h.ARCount),
		rcodeLine(h.RCode()),
	)

	if opt := findOPT(msg.Additionals); opt != nil {
		decoded := wire.DecodeOPT(*opt)
		t.lines = append(t.lines, fmt.Sprintf("edns: udp_payload_size=%d extended_rcode=%d version=%d flags=%#04x",
			decoded.UDPPayloadSize, decoded.ExtendedRCode, decoded.Version, decoded.Flags))
	}

	t.lines = append(t.lines,
		dumpSection("question", questionNames(msg)),
		dumpSection("answer", rrSummaries(msg.Answers)),
		dumpSection("authority", rrSummaries(msg.Authorities)),
		dumpSection("additional", rrSummaries(msg.Additionals)),
	)
}

// Finish appends the closing summary line: elapsed time, the server that
// ultimately answered, a UTC timestamp, and the response size in bytes.
func (t *Trail) Finish(endpoint string, messageSize int) {
	elapsed := time.Since(t.start)
	t.lines = append(t.lines, fmt.Sprintf(
		"elapsed=%dms server=%s at=%s size=%dB",
		elapsed.Milliseconds(), endpoint, time.Now().UTC().Format(time.RFC3339), messageSize,
	))
}

// String renders the trail as a newline-joined transcript.
func (t *Trail) String() string {
	return strings.Join(t.lines, "\n")
}

func rcodeLine(rcode uint8) string {
	if rcode == wire.RCodeNoError {
		return "rcode: NOERROR"
	}
	return fmt.Sprintf("rcode: %d (error)", rcode)
}

func findOPT(additionals []wire.RR) *wire.RR {
	for i := range additionals {
		if additionals[i].Type == wire.TypeOPT {
			return &additionals[i]
		}
	}
	return nil
}

func questionNames(msg *wire.Message) []string {
	out := make([]string, len(msg.Questions))
	for i, q := range msg.Questions {
		out[i] = fmt.Sprintf("%s type=%d class=%d", q.Name, q.Type, q.Class)
	}
	return out
}

func rrSummaries(rrs []wire.RR) []string {
	out := make([]string, len(rrs))
	for i, rr := range rrs {
		out[i] = fmt.Sprintf("%s type=%d class=%d ttl=%d %v", rr.Name, rr.Type, rr.Class, rr.TTL, rr.Decoded)
	}
	return out
}

func dumpSection(name string, entries []string) string {
	if len(entries) == 0 {
		return fmt.Sprintf("%s: (empty)", name)
	}
	return fmt.Sprintf("%s:\n  %s", name, strings.Join(entries, "\n  "))
}
