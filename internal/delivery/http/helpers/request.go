package helpers

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// PathID parses the named path value as a positive int64.
func PathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseTrustedProxies parses CIDR blocks such as "10.0.0.0/8". A bare IP is read as a
// single-host block.
func ParseTrustedProxies(blocks []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if !strings.Contains(block, "/") {
			ip := net.ParseIP(block)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", block)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip, bits = ip.To4(), 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, cidr, err := net.ParseCIDR(block)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", block, err)
		}
		nets = append(nets, cidr)
	}
	return nets, nil
}

// ClientIP returns the caller address. Forwarding headers are honoured only when
// RemoteAddr is inside one of trusted; X-Forwarded-For is then walked from the right,
// skipping trusted hops, and X-Real-IP is the fallback. With no trusted proxies the
// result is always the RemoteAddr host.
func ClientIP(r *http.Request, trusted []*net.IPNet) string {
	remote, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remote = r.RemoteAddr
	}
	if !inNets(net.ParseIP(remote), trusted) {
		return remote
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(hops[i]))
			if ip == nil {
				break
			}
			if !inNets(ip, trusted) {
				return ip.String()
			}
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return remote
}

func inNets(ip net.IP, nets []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
