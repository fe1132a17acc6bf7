package wire

import "encoding/binary"

// BuildQuery encodes a single-question query message: header, question,
// and, when udpPayloadSize is nonzero, a trailing EDNS(0) OPT additional
// record advertising it (RFC 6891 §6.1.2). id is the transaction ID the
// caller generated; the response's ID must be matched against it before the
// message is trusted.
func BuildQuery(id uint16, name string, qtype uint16, recursionDesired bool, udpPayloadSize uint16) ([]byte, error) {
	encodedName, err := EncodeName(name)
	if err != nil {
		return nil, err
	}

	var arcount uint16
	if udpPayloadSize > 0 {
		arcount = 1
	}

	header := NewQueryHeader(id, recursionDesired, arcount)

	buf := make([]byte, 0, 12+len(encodedName)+4+11)
	buf = appendHeader(buf, header)
	buf = append(buf, encodedName...)
	buf = binary.BigEndian.AppendUint16(buf, qtype)
	buf = binary.BigEndian.AppendUint16(buf, ClassIN)

	if udpPayloadSize > 0 {
		buf = appendOPT(buf, udpPayloadSize)
	}

	return buf, nil
}

func appendHeader(buf []byte, h Header) []byte {
	buf = binary.BigEndian.AppendUint16(buf, h.ID)
	buf = binary.BigEndian.AppendUint16(buf, h.Flags)
	buf = binary.BigEndian.AppendUint16(buf, h.QDCount)
	buf = binary.BigEndian.AppendUint16(buf, h.ANCount)
	buf = binary.BigEndian.AppendUint16(buf, h.NSCount)
	buf = binary.BigEndian.AppendUint16(buf, h.ARCount)
	return buf
}

// appendOPT appends a root-name (".") OPT pseudo-record: TYPE=OPT,
// CLASS=udpPayloadSize, TTL=0 (no extended RCODE, version 0, no flags),
// RDLENGTH=0.
func appendOPT(buf []byte, udpPayloadSize uint16) []byte {
	buf = append(buf, 0) // root name
	buf = binary.BigEndian.AppendUint16(buf, TypeOPT)
	buf = binary.BigEndian.AppendUint16(buf, udpPayloadSize)
	buf = binary.BigEndian.AppendUint32(buf, 0)
	buf = binary.BigEndian.AppendUint16(buf, 0) // RDLENGTH
	return buf
}
