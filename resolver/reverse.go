package resolver

import (
	"fmt"
	"net"

	"github.com/arnovale/stubdns/internal/rerrors"
)

// reverseName builds the in-addr.arpa (IPv4) or ip6.arpa (IPv6) name that
// PTR records are conventionally filed under for ip (RFC 1035 §3.5, RFC
// 3596 §2.5).
func reverseName(ip net.IP) (string, error) {
	if v4 := ip.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.%d.in-addr.arpa", v4[3], v4[2], v4[1], v4[0]), nil
	}

	v6 := ip.To16()
	if v6 == nil {
		return "", &rerrors.ValidationErr{Field: "ip", Value: ip.String(), Message: "not a valid IPv4 or IPv6 address"}
	}

	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 0, 64)
	for i := len(v6) - 1; i >= 0; i-- {
		b := v6[i]
		buf = append(buf, hexDigits[b&0x0F], '.', hexDigits[b>>4], '.')
	}
	return string(buf) + "ip6.arpa", nil
}
