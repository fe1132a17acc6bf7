package wire

import (
	"fmt"
	"strings"

	"github.com/arnovale/stubdns/internal/rerrors"
)

// ParseName decodes a DNS name starting at offset, following compression
// pointers per RFC 1035 §4.1.4. A pointer's 14-bit offset must point
// strictly earlier in the message than the pointer itself; violating that
// (including the degenerate case of a pointer to itself) is treated as a
// compression loop and aborts decoding, matching the loop guard the teacher
// library used for mDNS name decompression.
func ParseName(msg []byte, offset int) (name string, newOffset int, err error) {
	if offset < 0 || offset >= len(msg) {
		return "", offset, &rerrors.WireFormatErr{
			Operation: "parse name",
			Offset:    offset,
			Message:   "offset out of bounds",
		}
	}

	var labels []string
	jumps := 0
	pos := offset
	jumped := false

	for {
		if pos >= len(msg) {
			return "", offset, &rerrors.WireFormatErr{
				Operation: "parse name",
				Offset:    pos,
				Message:   "unexpected end of message while parsing name",
			}
		}

		length := msg[pos]

		if (length & CompressionMask) == CompressionMask {
			if pos+1 >= len(msg) {
				return "", offset, &rerrors.WireFormatErr{
					Operation: "parse name",
					Offset:    pos,
					Message:   "truncated compression pointer",
				}
			}

			pointerOffset := int(msg[pos]&0x3F)<<8 | int(msg[pos+1])

			if pointerOffset >= pos {
				return "", offset, &rerrors.WireFormatErr{
					Operation: "parse name",
					Offset:    pos,
					Message:   fmt.Sprintf("invalid compression pointer: points to offset %d (current position %d)", pointerOffset, pos),
				}
			}

			if !jumped {
				newOffset = pos + 2
				jumped = true
			}

			pos = pointerOffset
			jumps++
			if jumps > MaxCompressionJumps {
				return "", offset, &rerrors.WireFormatErr{
					Operation: "parse name",
					Offset:    pos,
					Message:   fmt.Sprintf("too many compression jumps (possible loop, exceeded %d)", MaxCompressionJumps),
				}
			}
			continue
		}

		if length == 0 {
			if !jumped {
				newOffset = pos + 1
			}
			break
		}

		if length > MaxLabelLength {
			return "", offset, &rerrors.WireFormatErr{
				Operation: "parse name",
				Offset:    pos,
				Message:   fmt.Sprintf("label length %d exceeds maximum %d bytes", length, MaxLabelLength),
			}
		}

		if pos+1+int(length) > len(msg) {
			return "", offset, &rerrors.WireFormatErr{
				Operation: "parse name",
				Offset:    pos,
				Message:   fmt.Sprintf("truncated label: expected %d bytes, only %d available", length, len(msg)-pos-1),
			}
		}

		labels = append(labels, string(msg[pos+1:pos+1+int(length)]))
		pos += 1 + int(length)
	}

	name = strings.Join(labels, ".")

	if len(name) > MaxNameLength {
		return "", offset, &rerrors.WireFormatErr{
			Operation: "parse name",
			Offset:    offset,
			Message:   fmt.Sprintf("name length %d exceeds maximum %d bytes", len(name), MaxNameLength),
		}
	}

	return name, newOffset, nil
}

// EncodeName encodes name into wire format: length-prefixed labels
// terminated by a zero-length label. Compression on encode is optional per
// RFC 1035 §4.1.4 ("a conforming implementation may omit it"); this client
// omits it, matching the teacher library's EncodeName, since a query only
// ever contains a single name.
func EncodeName(name string) ([]byte, error) {
	if name == "" || name == "." {
		return []byte{0}, nil
	}

	labels := strings.Split(name, ".")
	if len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}

	encoded := make([]byte, 0, MaxNameLength+1)
	for _, label := range labels {
		if len(label) == 0 {
			return nil, &rerrors.ValidationErr{
				Field:   "name",
				Value:   name,
				Message: "empty label (consecutive dots)",
			}
		}
		if len(label) > MaxLabelLength {
			return nil, &rerrors.ValidationErr{
				Field:   "name",
				Value:   name,
				Message: fmt.Sprintf("label %q exceeds maximum length %d bytes", label, MaxLabelLength),
			}
		}
		encoded = append(encoded, byte(len(label)))
		encoded = append(encoded, []byte(label)...)
	}
	encoded = append(encoded, 0)

	if len(encoded) > MaxNameLength {
		return nil, &rerrors.ValidationErr{
			Field:   "name",
			Value:   name,
			Message: fmt.Sprintf("encoded name length %d exceeds maximum %d bytes", len(encoded), MaxNameLength),
		}
	}

	return encoded, nil
}

// EqualFoldASCII reports whether two names are equal under the
// case-insensitive-over-ASCII comparison DNS names use; non-ASCII octets
// compare bit-for-bit.
func EqualFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// LowerASCII lowercases only ASCII letters, leaving any other byte
// untouched — used to build the cache fingerprint (spec §4.3: "non-ASCII
// octets pass through bit-for-bit").
func LowerASCII(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}
