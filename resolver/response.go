package resolver

import "github.com/arnovale/stubdns/internal/wire"

// Response is the decoded result of one successfully transported and
// decoded query: its answer, authority, and additional sections, the
// RCODE, and (when enabled) the audit trail describing how it was obtained.
type Response struct {
	RCode       uint8
	Truncated   bool
	Answers     []ResourceRecord
	Authorities []ResourceRecord
	Additionals []ResourceRecord

	// Server is the endpoint that produced this response; empty when the
	// response was served from the cache.
	Server string

	// AuditTrail is the rendered transcript, non-empty only when
	// enable_audit_trail is set.
	AuditTrail string
}

func newResponse(msg *wire.Message, server, trail string) *Response {
	return &Response{
		RCode:       msg.Header.RCode(),
		Truncated:   msg.Header.Truncated(),
		Answers:     fromWireRRs(msg.Answers),
		Authorities: fromWireRRs(msg.Authorities),
		Additionals: fromWireRRs(msg.Additionals),
		Server:      server,
		AuditTrail:  trail,
	}
}

func fromWireRRs(rrs []wire.RR) []ResourceRecord {
	out := make([]ResourceRecord, 0, len(rrs))
	for _, rr := range rrs {
		if rr.Type == wire.TypeOPT {
			continue
		}
		out = append(out, fromWireRR(rr))
	}
	return out
}
