// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/ManuGH/hdrkit/internal/header"
)

// SecurityHeaders adds the standard hardening headers to every response.
// Strict-Transport-Security is only sent over TLS, or when a trusted proxy
// reports X-Forwarded-Proto: https. The policy is sent as given, so
// max-age=0 tells browsers to forget the host (RFC 6797 section 6.1.1).
func SecurityHeaders(hsts header.StrictTransportSecurity, trustedProxies []*net.IPNet) func(http.Handler) http.Handler {
	hstsValue := hsts.String()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHTTPS(r, trustedProxies) {
				w.Header().Set(hsts.Name(), hstsValue)
			}
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")

			next.ServeHTTP(w, r)
		})
	}
}

func isHTTPS(r *http.Request, trustedProxies []*net.IPNet) bool {
	if r.TLS != nil {
		return true
	}
	if !strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return false
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && IsIPAllowed(ip, trustedProxies)
}

// ParseCIDRs parses CIDR strings. A bare IP is treated as a single-host network.
func ParseCIDRs(cidrs []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.Contains(c, "/") {
			ip := net.ParseIP(c)
			if ip == nil {
				return nil, fmt.Errorf("invalid proxy address %q", c)
			}
			bits := 128
			if ip.To4() != nil {
				ip = ip.To4()
				bits = 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy CIDR %q: %w", c, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// IsIPAllowed reports whether ip falls in any of nets.
func IsIPAllowed(ip net.IP, nets []*net.IPNet) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
