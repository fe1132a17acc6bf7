// Package cache implements the response cache: a thin wrapper over
// patrickmn/go-cache keyed by a canonicalized query fingerprint, with the
// TTL-floor and SOA-minimum-fallback rules a stub resolver needs that a
// generic TTL cache doesn't know about.
package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/arnovale/stubdns/internal/wire"
)

// cleanupInterval governs how often go-cache sweeps expired entries in the
// background; actual expiry is still honored per-entry on Get regardless
// of when the sweep runs.
const cleanupInterval = 10 * time.Minute

// Cache stores decoded responses keyed by query fingerprint. Concurrent
// access is safe: go-cache guards its internal map with an RWMutex, giving
// the multiple-reader/single-writer-per-key semantics the response cache
// needs without any locking of our own.
type Cache struct {
	store   *gocache.Cache
	enabled bool
}

// New creates a cache. enabled controls whether Get/Put do anything; it
// can be flipped at runtime via SetEnabled.
func New(enabled bool) *Cache {
	return &Cache{
		store:   gocache.New(gocache.NoExpiration, cleanupInterval),
		enabled: enabled,
	}
}

// SetEnabled toggles the cache at runtime. Disabling does not clear
// existing entries; it only makes Get act as a miss and Put a no-op, so
// re-enabling resumes serving whatever hasn't expired.
func (c *Cache) SetEnabled(enabled bool) {
	c.enabled = enabled
}

// Enabled reports the current toggle state.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Get returns the cached message for fingerprint, if present and unexpired
// and the cache is enabled.
func (c *Cache) Get(fingerprint string) (*wire.Message, bool) {
	if !c.enabled {
		return nil, false
	}
	v, ok := c.store.Get(fingerprint)
	if !ok {
		return nil, false
	}
	msg, ok := v.(*wire.Message)
	if !ok {
		return nil, false
	}
	return msg, true
}

// Put stores msg under fingerprint for ttl. A no-op when the cache is
// disabled or ttl is zero (a zero-TTL response is only ever cached via the
// floor, which the caller is expected to have already applied through
// ComputeTTL).
func (c *Cache) Put(fingerprint string, msg *wire.Message, ttl time.Duration) {
	if !c.enabled || ttl <= 0 {
		return
	}
	c.store.Set(fingerprint, msg, ttl)
}

// Flush discards every cached entry.
func (c *Cache) Flush() {
	c.store.Flush()
}

// Fingerprint canonicalizes a (name, type, class) question into the cache
// key: ASCII letters in name are lowercased, non-ASCII octets pass through
// untouched, so two queries differing only in ASCII case collide onto the
// same entry.
func Fingerprint(name string, qtype, class uint16) string {
	return fmt.Sprintf("%s/%d/%d", wire.LowerASCII(name), qtype, class)
}

// ComputeTTL derives the cache lifetime for msg: the minimum TTL across
// Answers, Authorities, and Additionals, falling back to an SOA record's
// Minimum field when there are no answers (negative caching), then raised
// to floor if floor is positive. ok is false when nothing qualifies the
// response for caching (no positive TTL found and no floor configured).
func ComputeTTL(msg *wire.Message, floor time.Duration) (ttl time.Duration, ok bool) {
	min, found := minTTL(msg)

	if !found {
		if floor > 0 {
			return floor, true
		}
		return 0, false
	}

	result := time.Duration(min) * time.Second
	if floor > result {
		result = floor
	}
	if result <= 0 {
		return 0, false
	}
	return result, true
}

func minTTL(msg *wire.Message) (uint32, bool) {
	var (
		min   uint32
		found bool
	)
	consider := func(rr wire.RR) {
		if !found || rr.TTL < min {
			min = rr.TTL
			found = true
		}
	}
	considerAdditionals := func() {
		for _, rr := range msg.Additionals {
			if _, isOPT := rr.Decoded.(wire.OPT); isOPT {
				continue
			}
			consider(rr)
		}
	}

	if len(msg.Answers) > 0 {
		// Positive response: min(answers ∪ authorities ∪ additionals) in
		// full — an NS/referral record riding along in Authorities still
		// bounds the cache lifetime.
		for _, rr := range msg.Answers {
			consider(rr)
		}
		for _, rr := range msg.Authorities {
			consider(rr)
		}
		considerAdditionals()
		return min, found
	}

	// No answer: this is a negative response (NXDOMAIN/NODATA). An SOA in
	// Authorities governs negative caching via its Minimum field (RFC 2308
	// §5), not the SOA record's own TTL.
	for _, rr := range msg.Authorities {
		if soa, ok := rr.Decoded.(wire.SOA); ok {
			return soa.Minimum, true
		}
	}

	// No SOA either: fall back to whatever direct TTLs Authorities or
	// Additionals carry (e.g. NS glue in a referral response).
	for _, rr := range msg.Authorities {
		consider(rr)
	}
	considerAdditionals()
	return min, found
}
