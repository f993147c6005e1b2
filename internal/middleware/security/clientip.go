package security

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Peers in these ranges are trusted to set forwarding headers.
var defaultProxies = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
}

// ClientIPResolver finds the caller address, honouring X-Forwarded-For and
// X-Real-IP only when the direct peer is a trusted proxy.
type ClientIPResolver struct {
	proxies []netip.Prefix
}

func NewClientIPResolver() *ClientIPResolver {
	return &ClientIPResolver{proxies: append([]netip.Prefix(nil), defaultProxies...)}
}

// AddTrustedProxy trusts forwarding headers from peers in cidr.
func (c *ClientIPResolver) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
	}
	c.proxies = append(c.proxies, p.Masked())
	return nil
}

func (c *ClientIPResolver) ClientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil || !c.trusted(addr.Unmap()) {
		return peer
	}

	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	for _, candidate := range []string{first, r.Header.Get("X-Real-IP")} {
		candidate = strings.TrimSpace(candidate)
		if _, err := netip.ParseAddr(candidate); err == nil {
			return candidate
		}
	}
	return peer
}

func (c *ClientIPResolver) trusted(addr netip.Addr) bool {
	for _, p := range c.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
