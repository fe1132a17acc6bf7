package wire

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/arnovale/stubdns/internal/rerrors"
)

// A is the decoded form of an A record: an IPv4 address (RFC 1035 §3.4.1).
type A struct{ IP net.IP }

// AAAA is the decoded form of an AAAA record: an IPv6 address (RFC 3596).
type AAAA struct{ IP net.IP }

// NS is the decoded form of an NS record: the name server's domain name.
type NS struct{ Host string }

// CNAME is the decoded form of a CNAME record: the canonical name.
type CNAME struct{ Target string }

// PTR is the decoded form of a PTR record: the pointed-to domain name.
type PTR struct{ Target string }

// MX is the decoded form of an MX record (RFC 1035 §3.3.9).
type MX struct {
	Preference uint16
	Exchange   string
}

// TXT is the decoded form of a TXT record: its character-strings.
type TXT struct{ Strings []string }

// SOA is the decoded form of an SOA record (RFC 1035 §3.3.13), used by the
// cache to derive a negative-caching TTL from the Minimum field when an
// answer section is empty.
type SOA struct {
	MName   string
	RName   string
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

// SRV is the decoded form of an SRV record (RFC 2782).
type SRV struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
}

// OPT is the decoded form of an EDNS(0) pseudo-record (RFC 6891 §6.1). The
// advertised UDP payload size lives in the record's Class field and the
// extended RCODE/version/flags in its TTL field; ParseRDATA returns a zero
// OPT, and DecodeOPT copies those fields here from the record.
type OPT struct {
	UDPPayloadSize uint16
	ExtendedRCode  uint8
	Version        uint8
	Flags          uint16
}

// Unknown preserves the raw RDATA bytes for any record type this client
// has no decoder for, per spec: "treat unknown types by preserving raw
// rdata."
type Unknown struct{ Raw []byte }

// checkWithinRDATA rejects a name-bearing RDATA decode whose consumed bytes
// (a compression pointer counts as its 2 on-wire bytes, not the expanded
// name) run past the record's declared RDLENGTH, so a short RDLENGTH can't
// make ParseName walk into the next record's bytes and return a spurious
// name instead of an error.
func checkWithinRDATA(op string, next, offset, rdataLen int) error {
	if next > offset+rdataLen {
		return &rerrors.WireFormatErr{Operation: op, Offset: next, Message: "name extends past record's declared rdlength"}
	}
	return nil
}

// ParseRDATA dispatches on record type to decode RDATA into one of the
// typed variants above. msg and offset are the full message buffer and the
// RDATA's start position within it, needed because several RDATA formats
// (NS, CNAME, PTR, MX, SOA, SRV) embed domain names that can use
// compression pointers relative to the whole message, not just the RDATA
// slice.
func ParseRDATA(msg []byte, rtype uint16, offset int, rdata []byte) (interface{}, error) {
	switch rtype {
	case TypeA:
		if len(rdata) != 4 {
			return nil, &rerrors.WireFormatErr{Operation: "parse A", Message: fmt.Sprintf("invalid length %d, expected 4", len(rdata))}
		}
		return A{IP: net.IPv4(rdata[0], rdata[1], rdata[2], rdata[3])}, nil

	case TypeAAAA:
		if len(rdata) != 16 {
			return nil, &rerrors.WireFormatErr{Operation: "parse AAAA", Message: fmt.Sprintf("invalid length %d, expected 16", len(rdata))}
		}
		ip := make(net.IP, 16)
		copy(ip, rdata)
		return AAAA{IP: ip}, nil

	case TypeNS:
		name, next, err := ParseName(msg, offset)
		if err != nil {
			return nil, err
		}
		if err := checkWithinRDATA("parse NS", next, offset, len(rdata)); err != nil {
			return nil, err
		}
		return NS{Host: name}, nil

	case TypeCNAME:
		name, next, err := ParseName(msg, offset)
		if err != nil {
			return nil, err
		}
		if err := checkWithinRDATA("parse CNAME", next, offset, len(rdata)); err != nil {
			return nil, err
		}
		return CNAME{Target: name}, nil

	case TypePTR:
		name, next, err := ParseName(msg, offset)
		if err != nil {
			return nil, err
		}
		if err := checkWithinRDATA("parse PTR", next, offset, len(rdata)); err != nil {
			return nil, err
		}
		return PTR{Target: name}, nil

	case TypeMX:
		if len(rdata) < 3 {
			return nil, &rerrors.WireFormatErr{Operation: "parse MX", Message: fmt.Sprintf("truncated record: %d bytes", len(rdata))}
		}
		preference := binary.BigEndian.Uint16(rdata[0:2])
		exchange, next, err := ParseName(msg, offset+2)
		if err != nil {
			return nil, err
		}
		if err := checkWithinRDATA("parse MX", next, offset, len(rdata)); err != nil {
			return nil, err
		}
		return MX{Preference: preference, Exchange: exchange}, nil

	case TypeTXT:
		var strs []string
		pos := 0
		for pos < len(rdata) {
			length := int(rdata[pos])
			pos++
			if pos+length > len(rdata) {
				return nil, &rerrors.WireFormatErr{
					Operation: "parse TXT",
					Message:   fmt.Sprintf("truncated string: expected %d bytes, only %d available", length, len(rdata)-pos),
				}
			}
			strs = append(strs, string(rdata[pos:pos+length]))
			pos += length
		}
		return TXT{Strings: strs}, nil

	case TypeSOA:
		mname, next, err := ParseName(msg, offset)
		if err != nil {
			return nil, err
		}
		rname, next, err := ParseName(msg, next)
		if err != nil {
			return nil, err
		}
		if next+20 > len(msg) {
			return nil, &rerrors.WireFormatErr{Operation: "parse SOA", Message: "truncated fixed fields"}
		}
		if err := checkWithinRDATA("parse SOA", next+20, offset, len(rdata)); err != nil {
			return nil, err
		}
		return SOA{
			MName:   mname,
			RName:   rname,
			Serial:  binary.BigEndian.Uint32(msg[next : next+4]),
			Refresh: binary.BigEndian.Uint32(msg[next+4 : next+8]),
			Retry:   binary.BigEndian.Uint32(msg[next+8 : next+12]),
			Expire:  binary.BigEndian.Uint32(msg[next+12 : next+16]),
			Minimum: binary.BigEndian.Uint32(msg[next+16 : next+20]),
		}, nil

	case TypeSRV:
		if len(rdata) < 6 {
			return nil, &rerrors.WireFormatErr{Operation: "parse SRV", Message: fmt.Sprintf("truncated record: %d bytes, expected at least 6", len(rdata))}
		}
		priority := binary.BigEndian.Uint16(rdata[0:2])
		weight := binary.BigEndian.Uint16(rdata[2:4])
		port := binary.BigEndian.Uint16(rdata[4:6])
		target, next, err := ParseName(msg, offset+6)
		if err != nil {
			return nil, err
		}
		if err := checkWithinRDATA("parse SRV", next, offset, len(rdata)); err != nil {
			return nil, err
		}
		return SRV{Priority: priority, Weight: weight, Port: port, Target: target}, nil

	case TypeOPT:
		// Class/TTL are interpreted per RFC 6891 §6.1.3; they're filled in
		// by the caller (the class field doubles as the advertised UDP
		// payload size) since RDATA itself carries only options we don't
		// use here.
		return OPT{}, nil

	default:
		return nil, &rerrors.WireFormatErr{Operation: "parse rdata", Message: fmt.Sprintf("unsupported record type %d", rtype)}
	}
}

// DecodeOPT fills in the UDP payload size and extended flags from an OPT
// record's Class/TTL fields, which ParseRDATA's generic dispatch can't see
// (it only gets the RDATA bytes, which for OPT carry only option entries
// this client ignores).
func DecodeOPT(rr RR) OPT {
	return OPT{
		UDPPayloadSize: rr.Class,
		ExtendedRCode:  uint8(rr.TTL >> 24), //nolint:gosec // top byte of a 32-bit field
		Version:        uint8(rr.TTL >> 16), //nolint:gosec // next byte of a 32-bit field
		Flags:          uint16(rr.TTL & 0xFFFF),
	}
}
