package audit

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDigestJSON(t *testing.T) {
	assert.Equal(t, "", DigestJSON(nil))
	a := DigestJSON([]byte(`{"a":1}`))
	assert.Len(t, a, 64)
	assert.Equal(t, a, DigestJSON([]byte(`{"a":1}`)))
	assert.NotEqual(t, a, DigestJSON([]byte(`{"a":2}`)))
}

func TestNewID(t *testing.T) {
	id := NewID()
	assert.True(t, strings.HasPrefix(id, "audit-"))
	assert.NotEqual(t, id, NewID())
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := NewZapLogger(zap.New(core))

	err := logger.Log(context.Background(), Entry{
		Actor:        "a.kumar",
		Action:       "debit_note.submit",
		ResourceType: "debit_note",
		ResourceID:   "n-1",
		Metadata:     json.RawMessage(`{"amount":"10.00"}`),
	})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "debit_note.submit", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "a.kumar", fields["actor"])
	assert.Equal(t, DigestJSON([]byte(`{"amount":"10.00"}`)), fields["payload_digest"])
	assert.True(t, strings.HasPrefix(fields["id"].(string), "audit-"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.9:5123"
	assert.Equal(t, "10.0.0.9", ClientIP(r))

	r.Header.Set("X-Real-IP", " 172.16.0.4 ")
	assert.Equal(t, "172.16.0.4", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(r))

	assert.Equal(t, "", ClientIP(nil))
}

func TestClientIP_IgnoresUnparseableHeaders(t *testing.T) {
	cases := []struct {
		name      string
		forwarded string
		realIP    string
		remote    string
		want      string
	}{
		{"garbage forwarded falls through", "unknown, <script>", "", "10.0.0.9:5123", "10.0.0.9"},
		{"first valid forwarded entry", "not-an-ip, 198.51.100.2", "", "10.0.0.9:5123", "198.51.100.2"},
		{"forwarded with port", "198.51.100.2:4711", "", "10.0.0.9:5123", "198.51.100.2"},
		{"bracketed ipv6 with port", "[2001:db8::1]:443", "", "10.0.0.9:5123", "2001:db8::1"},
		{"ipv4 mapped ipv6", "::ffff:192.0.2.5", "", "10.0.0.9:5123", "192.0.2.5"},
		{"invalid real ip ignored", "", "proxy", "10.0.0.9:5123", "10.0.0.9"},
		{"remote without port", "", "", "192.0.2.8", "192.0.2.8"},
		{"unparseable remote kept", "", "", "pipe", "pipe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tc.remote
			if tc.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				r.Header.Set("X-Real-IP", tc.realIP)
			}
			assert.Equal(t, tc.want, ClientIP(r))
		})
	}
}
