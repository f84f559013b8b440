// Package privacy provides helpers for logging identifiers without retaining
// personally identifying detail.
package privacy

import (
	"net"
	"strings"
)

// AnonymizeIP truncates an IP for audit logs: IPv4 keeps the /24 prefix,
// IPv6 keeps the /48 prefix. Unparseable input is reported as "invalid".
func AnonymizeIP(ip string) string {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		masked := v4.Mask(net.CIDRMask(24, 32))
		return masked.String() + "/24"
	}
	masked := parsed.Mask(net.CIDRMask(48, 128))
	return masked.String() + "/48"
}
