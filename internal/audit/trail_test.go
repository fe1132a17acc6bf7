package audit

import (
	"strings"
	"testing"

	"github.com/arnovale/stubdns/internal/wire"
)

func TestTrailRecordsHeaderAndSections(t *testing.T) {
	trail := New(2)
	msg := &wire.Message{
		Header:    wire.Header{ID: 7, Flags: 0x8180, ANCount: 1},
		Questions: []wire.Question{{Name: "example.com", Type: wire.TypeA, Class: wire.ClassIN}},
		Answers: []wire.RR{
			{Name: "example.com", Type: wire.TypeA, Class: wire.ClassIN, TTL: 300, Decoded: wire.A{}},
		},
	}
	trail.Note("retrying with tcp")
	trail.RecordResponse(msg)
	trail.Finish("127.0.0.1:53", 64)

	out := trail.String()
	if !strings.Contains(out, "resolvers configured: 2") {
		t.Error("missing resolver count line")
	}
	if !strings.Contains(out, "retrying with tcp") {
		t.Error("missing inline note")
	}
	if !strings.Contains(out, "rcode: NOERROR") {
		t.Error("missing rcode line")
	}
	if !strings.Contains(out, "answer:") {
		t.Error("missing answer section")
	}
	if !strings.Contains(out, "server=127.0.0.1:53") {
		t.Error("missing finish line")
	}
}

func TestTrailEmptySectionsRenderExplicitly(t *testing.T) {
	trail := New(1)
	trail.RecordResponse(&wire.Message{Header: wire.Header{}})

	out := trail.String()
	if !strings.Contains(out, "answer: (empty)") {
		t.Error("expected explicit empty marker for answer section")
	}
}

func TestTrailRendersEDNSLine(t *testing.T) {
	trail := New(1)
	msg := &wire.Message{
		Header: wire.Header{},
		Additionals: []wire.RR{
			{Name: ".", Type: wire.TypeOPT, Class: 4096, TTL: 0},
		},
	}
	trail.RecordResponse(msg)

	out := trail.String()
	if !strings.Contains(out, "edns: udp_payload_size=4096") {
		t.Errorf("missing edns line in trail: %s", out)
	}
}
