package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleServerNeverDisabled(t *testing.T) {
	p := New([]string{"127.0.0.1:53"}, false)
	servers := p.NextServers()
	require.Len(t, servers, 1)

	p.Disable(servers[0])
	assert.True(t, servers[0].Enabled(), "single-server pool must never disable its only server")
}

func TestDegradedModeReturnsAllWhenNoneEnabled(t *testing.T) {
	p := New([]string{"a:53", "b:53"}, false)
	servers := p.NextServers()
	for _, s := range servers {
		p.Disable(s)
	}

	next := p.NextServers()
	assert.Len(t, next, 2, "expected all servers in degraded mode")
}

func TestNextServersExcludesDisabled(t *testing.T) {
	p := New([]string{"a:53", "b:53", "c:53"}, false)
	all := p.NextServers()
	p.Disable(all[0])

	next := p.NextServers()
	require.Len(t, next, 2, "one server disabled")
	for _, s := range next {
		assert.NotEqual(t, all[0].Endpoint, s.Endpoint, "disabled server should not be returned")
	}
}

func TestRotationAdvancesRoundRobin(t *testing.T) {
	p := New([]string{"a:53", "b:53", "c:53"}, true)

	first := p.NextServers()
	second := p.NextServers()

	require.NotEmpty(t, first)
	require.NotEmpty(t, second)
	assert.Equal(t, "a:53", first[0].Endpoint)
	assert.Equal(t, "b:53", second[0].Endpoint, "expected rotation after first call")
}

func TestMarkSuccessReEnablesAndRecordsQuestion(t *testing.T) {
	p := New([]string{"a:53", "b:53"}, false)
	all := p.NextServers()
	p.Disable(all[0])
	require.False(t, all[0].Enabled())

	q := Question{Name: "example.com", Type: 1, Class: 1}
	all[0].MarkSuccess(q)

	assert.True(t, all[0].Enabled(), "expected server re-enabled after MarkSuccess")
	got := all[0].LastSuccessfulQuestion()
	require.NotNil(t, got)
	assert.Equal(t, q, *got)
}

func TestNegotiatedUDPSizeRoundTrip(t *testing.T) {
	s := &NameServer{Endpoint: "a:53", enabled: true}
	require.Equal(t, uint16(0), s.NegotiatedUDPSize())
	s.SetNegotiatedUDPSize(4096)
	assert.Equal(t, uint16(4096), s.NegotiatedUDPSize())
}

func TestQuestionFromFingerprintLowercasesName(t *testing.T) {
	q := QuestionFromFingerprint("Example.COM", 1, 1)
	assert.Equal(t, "example.com", q.Name)
}
