package audit

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the address recorded as the actor's origin. Proxy headers
// are only trusted when they hold a parseable address; otherwise the
// connection's remote address is used.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, entry := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if addr, ok := parseAddr(entry); ok {
			return addr.String()
		}
	}
	if addr, ok := parseAddr(r.Header.Get("X-Real-IP")); ok {
		return addr.String()
	}
	if addr, ok := parseAddr(r.RemoteAddr); ok {
		return addr.String()
	}
	return r.RemoteAddr
}

// parseAddr accepts a bare address or host:port, with IPv6 optionally
// bracketed. IPv4-mapped IPv6 addresses are reported as IPv4.
func parseAddr(raw string) (netip.Addr, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(strings.Trim(raw, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
