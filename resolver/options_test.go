package resolver

import (
	"testing"
	"time"
)

func TestWithTimeoutRejectsNegative(t *testing.T) {
	_, err := New([]string{"a:53"}, WithTimeout(-time.Second))
	if err == nil {
		t.Fatal("expected error for negative timeout")
	}
}

func TestWithTimeoutZeroRestoresDefault(t *testing.T) {
	c, err := New([]string{"a:53"}, WithTimeout(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.timeout != defaultTimeout {
		t.Errorf("got timeout %v, want default %v", c.timeout, defaultTimeout)
	}
}

func TestWithMinCacheTTLRejectsNegative(t *testing.T) {
	_, err := New([]string{"a:53"}, WithMinCacheTTL(-time.Second))
	if err == nil {
		t.Fatal("expected error for negative min cache ttl")
	}
}

func TestNewRejectsEmptyServerList(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for empty server list")
	}
}

func TestOptionsApplyOverDefaults(t *testing.T) {
	c, err := New([]string{"a:53"}, WithRetries(9), WithCache(false), WithTCPOnly(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.retries != 9 {
		t.Errorf("got retries %d, want 9", c.retries)
	}
	if c.useCache {
		t.Error("expected cache disabled")
	}
	if !c.useTCPOnly {
		t.Error("expected tcp-only enabled")
	}
}
