// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package header

import (
	"fmt"
	"strconv"
	"strings"
)

// NameStrictTransportSecurity is the canonical HSTS field name.
const NameStrictTransportSecurity = "Strict-Transport-Security"

// StrictTransportSecurity is the HSTS policy header (RFC 6797).
//
//	[ directive ]  *( ";" [ directive ] )
//	directive       = directive-name [ "=" directive-value ]
//	directive-value = token | quoted-string
type StrictTransportSecurity struct {
	// MaxAge is the number of seconds the host is a known HSTS host.
	MaxAge uint64
	// IncludeSubdomains extends the policy to every subdomain.
	IncludeSubdomains bool
}

// IncludingSubdomains returns a policy covering subdomains.
func IncludingSubdomains(maxAge uint64) StrictTransportSecurity {
	return StrictTransportSecurity{MaxAge: maxAge, IncludeSubdomains: true}
}

// ExcludingSubdomains returns a policy for the host only.
func ExcludingSubdomains(maxAge uint64) StrictTransportSecurity {
	return StrictTransportSecurity{MaxAge: maxAge}
}

func (StrictTransportSecurity) Name() string { return NameStrictTransportSecurity }

func (s StrictTransportSecurity) String() string {
	if s.IncludeSubdomains {
		return fmt.Sprintf("max-age=%d; includeSubdomains", s.MaxAge)
	}
	return fmt.Sprintf("max-age=%d", s.MaxAge)
}

// ParseStrictTransportSecurity requires exactly one max-age directive.
// Unknown directives are ignored; repeated directives are rejected.
func ParseStrictTransportSecurity(raw Raw) (StrictTransportSecurity, error) {
	line, err := oneRawStr(raw)
	if err != nil {
		return StrictTransportSecurity{}, parseErr(NameStrictTransportSecurity, raw, err)
	}
	sts, err := parseSTSValue(line)
	if err != nil {
		return StrictTransportSecurity{}, parseErr(NameStrictTransportSecurity, raw, err)
	}
	return sts, nil
}

func parseSTSValue(s string) (StrictTransportSecurity, error) {
	var (
		out      StrictTransportSecurity
		haveAge  bool
		haveIncl bool
	)
	for _, dir := range strings.Split(s, ";") {
		dir = strings.TrimSpace(dir)
		if strings.EqualFold(dir, "includeSubdomains") {
			if haveIncl {
				return out, errDuplicate
			}
			haveIncl = true
			out.IncludeSubdomains = true
			continue
		}
		name, value, ok := strings.Cut(dir, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "max-age") {
			continue
		}
		age, err := strconv.ParseUint(unquote(strings.TrimSpace(value)), 10, 64)
		if err != nil {
			return out, fmt.Errorf("max-age: %w", err)
		}
		if haveAge {
			return out, errDuplicate
		}
		haveAge = true
		out.MaxAge = age
	}
	if !haveAge {
		return out, errMissingMaxA
	}
	return out, nil
}
