// Package clientip determines the address a request originally came from.
package clientip

import (
	"net/netip"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const Unknown = "unknown"

// longest textual IPv6 form, matches the audit ip_address column
const maxAddrLen = 45

// FromCtx returns the client address considering proxies, in this order:
// CF-Connecting-IP, first X-Forwarded-For entry, X-Real-IP, socket address.
// Candidates that are not IP addresses are skipped. The result is used as
// rate limit key and audit address.
func FromCtx(c *fiber.Ctx) string {
	// 1. Cloudflare provides the original client IP
	if ip, ok := parse(c.Get("CF-Connecting-IP")); ok {
		return ip
	}

	// 2. X-Forwarded-For can contain a list of IPs - the first one is the original client
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, ok := parse(first); ok {
			return ip
		}
	}

	// 3. nginx style
	if ip, ok := parse(c.Get("X-Real-IP")); ok {
		return ip
	}

	// 4. no proxy headers, use the socket address
	if ip, ok := parse(c.IP()); ok {
		return ip
	}
	return Unknown
}

// parse validates one candidate and unwraps IPv4-mapped IPv6 addresses
// (::ffff:1.2.3.4). Zones are dropped.
func parse(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxAddrLen {
		return "", false
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return "", false
	}
	return addr.Unmap().WithZone("").String(), true
}
