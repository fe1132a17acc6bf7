package resolver

import (
	"fmt"
	"net"

	"github.com/arnovale/stubdns/internal/wire"
)

// RecordType is a DNS resource record type, mirroring the wire-format
// values directly (RFC 1035 §3.2.2 and RFC 2782/1183/2671).
type RecordType uint16

// Supported record types. Unrecognized types still decode, just with an
// Unknown payload via ResourceRecord.AsUnknown.
const (
	RecordTypeA     RecordType = RecordType(wire.TypeA)
	RecordTypeNS    RecordType = RecordType(wire.TypeNS)
	RecordTypeCNAME RecordType = RecordType(wire.TypeCNAME)
	RecordTypeSOA   RecordType = RecordType(wire.TypeSOA)
	RecordTypePTR   RecordType = RecordType(wire.TypePTR)
	RecordTypeMX    RecordType = RecordType(wire.TypeMX)
	RecordTypeTXT   RecordType = RecordType(wire.TypeTXT)
	RecordTypeAAAA  RecordType = RecordType(wire.TypeAAAA)
	RecordTypeSRV   RecordType = RecordType(wire.TypeSRV)
)

var recordTypeNames = map[RecordType]string{
	RecordTypeA:     "A",
	RecordTypeNS:    "NS",
	RecordTypeCNAME: "CNAME",
	RecordTypeSOA:   "SOA",
	RecordTypePTR:   "PTR",
	RecordTypeMX:    "MX",
	RecordTypeTXT:   "TXT",
	RecordTypeAAAA:  "AAAA",
	RecordTypeSRV:   "SRV",
}

// String returns the record type's conventional mnemonic, or its numeric
// value for a type this client has no name for.
func (r RecordType) String() string {
	if name, ok := recordTypeNames[r]; ok {
		return name
	}
	return fmt.Sprintf("TYPE%d", uint16(r))
}

// ResourceRecord is one decoded record from a response's answer,
// authority, or additional section.
type ResourceRecord struct {
	// Data holds the type-specific decoded value: net.IP for A/AAAA,
	// string for NS/CNAME/PTR, MXData/SRVData/SOAData for those types,
	// []string for TXT, or UnknownData for anything else.
	//
	// Use the As* accessors for type-safe access instead of a type switch.
	Data interface{}

	Name  string
	Type  RecordType
	Class uint16
	TTL   uint32
}

// MXData is parsed MX record data (RFC 1035 §3.3.9).
type MXData struct {
	Exchange   string
	Preference uint16
}

// SRVData is parsed SRV record data (RFC 2782).
type SRVData struct {
	Target   string
	Priority uint16
	Weight   uint16
	Port     uint16
}

// SOAData is parsed SOA record data (RFC 1035 §3.3.13).
type SOAData struct {
	MName   string
	RName   string
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

// UnknownData preserves the raw RDATA of a record type this client has no
// decoder for.
type UnknownData struct{ Raw []byte }

func fromWireRR(rr wire.RR) ResourceRecord {
	return ResourceRecord{
		Name:  rr.Name,
		Type:  RecordType(rr.Type),
		Class: rr.Class,
		TTL:   rr.TTL,
		Data:  fromDecoded(rr.Decoded, rr.RData),
	}
}

func fromDecoded(decoded interface{}, raw []byte) interface{} {
	switch v := decoded.(type) {
	case wire.A:
		return v.IP
	case wire.AAAA:
		return v.IP
	case wire.NS:
		return v.Host
	case wire.CNAME:
		return v.Target
	case wire.PTR:
		return v.Target
	case wire.MX:
		return MXData{Exchange: v.Exchange, Preference: v.Preference}
	case wire.TXT:
		return v.Strings
	case wire.SOA:
		return SOAData{
			MName: v.MName, RName: v.RName, Serial: v.Serial,
			Refresh: v.Refresh, Retry: v.Retry, Expire: v.Expire, Minimum: v.Minimum,
		}
	case wire.SRV:
		return SRVData{Target: v.Target, Priority: v.Priority, Weight: v.Weight, Port: v.Port}
	case wire.OPT:
		return v
	case wire.Unknown:
		return UnknownData{Raw: v.Raw}
	default:
		return UnknownData{Raw: raw}
	}
}

// AsA returns the IPv4 address for an A record, or nil otherwise.
func (r *ResourceRecord) AsA() net.IP {
	if r.Type != RecordTypeA {
		return nil
	}
	ip, _ := r.Data.(net.IP)
	return ip
}

// AsAAAA returns the IPv6 address for an AAAA record, or nil otherwise.
func (r *ResourceRecord) AsAAAA() net.IP {
	if r.Type != RecordTypeAAAA {
		return nil
	}
	ip, _ := r.Data.(net.IP)
	return ip
}

// AsNS returns the host name for an NS record, or "" otherwise.
func (r *ResourceRecord) AsNS() string {
	if r.Type != RecordTypeNS {
		return ""
	}
	s, _ := r.Data.(string)
	return s
}

// AsCNAME returns the canonical name for a CNAME record, or "" otherwise.
func (r *ResourceRecord) AsCNAME() string {
	if r.Type != RecordTypeCNAME {
		return ""
	}
	s, _ := r.Data.(string)
	return s
}

// AsPTR returns the target name for a PTR record, or "" otherwise.
func (r *ResourceRecord) AsPTR() string {
	if r.Type != RecordTypePTR {
		return ""
	}
	s, _ := r.Data.(string)
	return s
}

// AsMX returns the parsed MX data, or nil otherwise.
func (r *ResourceRecord) AsMX() *MXData {
	if r.Type != RecordTypeMX {
		return nil
	}
	mx, ok := r.Data.(MXData)
	if !ok {
		return nil
	}
	return &mx
}

// AsTXT returns the character-strings of a TXT record, or nil otherwise.
func (r *ResourceRecord) AsTXT() []string {
	if r.Type != RecordTypeTXT {
		return nil
	}
	txt, _ := r.Data.([]string)
	return txt
}

// AsSOA returns the parsed SOA data, or nil otherwise.
func (r *ResourceRecord) AsSOA() *SOAData {
	if r.Type != RecordTypeSOA {
		return nil
	}
	soa, ok := r.Data.(SOAData)
	if !ok {
		return nil
	}
	return &soa
}

// AsSRV returns the parsed SRV data, or nil otherwise.
func (r *ResourceRecord) AsSRV() *SRVData {
	if r.Type != RecordTypeSRV {
		return nil
	}
	srv, ok := r.Data.(SRVData)
	if !ok {
		return nil
	}
	return &srv
}

// AsUnknown returns the raw RDATA for a record type this client has no
// decoder for, or nil if r decoded into a known type.
func (r *ResourceRecord) AsUnknown() []byte {
	unknown, ok := r.Data.(UnknownData)
	if !ok {
		return nil
	}
	return unknown.Raw
}
