package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/arnovale/stubdns/internal/rerrors"
)

// ParseMessage decodes a complete DNS message: header, then the question,
// answer, authority, and additional sections in order, following RFC 1035
// §4.1's ordering and size fields.
func ParseMessage(msg []byte) (*Message, error) {
	header, err := ParseHeader(msg)
	if err != nil {
		return nil, err
	}

	offset := 12

	questions := make([]Question, header.QDCount)
	for i := uint16(0); i < header.QDCount; i++ {
		q, newOffset, err := ParseQuestion(msg, offset)
		if err != nil {
			return nil, err
		}
		questions[i] = q
		offset = newOffset
	}

	answers, offset, err := parseRRSection(msg, offset, header.ANCount)
	if err != nil {
		return nil, err
	}
	authorities, offset, err := parseRRSection(msg, offset, header.NSCount)
	if err != nil {
		return nil, err
	}
	additionals, offset, err := parseRRSection(msg, offset, header.ARCount)
	if err != nil {
		return nil, err
	}
	_ = offset

	return &Message{
		Header:      header,
		Questions:   questions,
		Answers:     answers,
		Authorities: authorities,
		Additionals: additionals,
	}, nil
}

func parseRRSection(msg []byte, offset int, count uint16) ([]RR, int, error) {
	records := make([]RR, count)
	for i := uint16(0); i < count; i++ {
		rr, newOffset, err := ParseRR(msg, offset)
		if err != nil {
			return nil, offset, err
		}
		records[i] = rr
		offset = newOffset
	}
	return records, offset, nil
}

// ParseHeader decodes the fixed 12-byte header.
func ParseHeader(msg []byte) (Header, error) {
	if len(msg) < 12 {
		return Header{}, &rerrors.WireFormatErr{
			Operation: "parse header",
			Offset:    0,
			Message:   fmt.Sprintf("message too short for header: %d bytes, expected at least 12", len(msg)),
		}
	}

	return Header{
		ID:      binary.BigEndian.Uint16(msg[0:2]),
		Flags:   binary.BigEndian.Uint16(msg[2:4]),
		QDCount: binary.BigEndian.Uint16(msg[4:6]),
		ANCount: binary.BigEndian.Uint16(msg[6:8]),
		NSCount: binary.BigEndian.Uint16(msg[8:10]),
		ARCount: binary.BigEndian.Uint16(msg[10:12]),
	}, nil
}

// ParseQuestion decodes one question section entry at offset.
func ParseQuestion(msg []byte, offset int) (Question, int, error) {
	name, newOffset, err := ParseName(msg, offset)
	if err != nil {
		return Question{}, offset, err
	}

	if newOffset+4 > len(msg) {
		return Question{}, offset, &rerrors.WireFormatErr{
			Operation: "parse question",
			Offset:    newOffset,
			Message:   "truncated question: not enough bytes for QTYPE and QCLASS",
		}
	}

	qtype := binary.BigEndian.Uint16(msg[newOffset : newOffset+2])
	qclass := binary.BigEndian.Uint16(msg[newOffset+2 : newOffset+4])

	return Question{Name: name, Type: qtype, Class: qclass}, newOffset + 4, nil
}

// ParseRR decodes one resource record (answer/authority/additional) entry
// at offset, then dispatches RDATA to ParseRDATA, preserving raw bytes on
// unknown types or decode failure rather than aborting the whole message.
func ParseRR(msg []byte, offset int) (RR, int, error) {
	name, newOffset, err := ParseName(msg, offset)
	if err != nil {
		return RR{}, offset, err
	}

	if newOffset+10 > len(msg) {
		return RR{}, offset, &rerrors.WireFormatErr{
			Operation: "parse rr",
			Offset:    newOffset,
			Message:   "truncated record: not enough bytes for fixed fields",
		}
	}

	rtype := binary.BigEndian.Uint16(msg[newOffset : newOffset+2])
	class := binary.BigEndian.Uint16(msg[newOffset+2 : newOffset+4])
	ttl := binary.BigEndian.Uint32(msg[newOffset+4 : newOffset+8])
	rdlength := binary.BigEndian.Uint16(msg[newOffset+8 : newOffset+10])
	newOffset += 10

	if newOffset+int(rdlength) > len(msg) {
		return RR{}, offset, &rerrors.WireFormatErr{
			Operation: "parse rr",
			Offset:    newOffset,
			Message:   fmt.Sprintf("truncated rdata: expected %d bytes, only %d available", rdlength, len(msg)-newOffset),
		}
	}

	rdataOffset := newOffset
	rdata := make([]byte, rdlength)
	copy(rdata, msg[newOffset:newOffset+int(rdlength)])

	rr := RR{
		Name:     name,
		Type:     rtype,
		Class:    class,
		TTL:      ttl,
		RDLength: rdlength,
		RData:    rdata,
	}
	// Decode failures (e.g. an RDATA format this client doesn't recognize)
	// fall back to the generic raw-bytes variant rather than failing the
	// whole message: one unparseable record shouldn't sink an otherwise
	// valid response.
	if decoded, err := ParseRDATA(msg, rtype, rdataOffset, rdata); err == nil {
		rr.Decoded = decoded
	} else {
		rr.Decoded = Unknown{Raw: rdata}
	}

	return rr, newOffset + int(rdlength), nil
}
