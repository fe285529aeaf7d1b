// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package header

// NameReferer is the canonical Referer field name (misspelling per RFC 7231).
const NameReferer = "Referer"

// Referer is the Referer header (RFC 7231 section 5.5.2): an absolute or
// partial URI, kept verbatim.
type Referer string

func (Referer) Name() string     { return NameReferer }
func (r Referer) String() string { return string(r) }

// ParseReferer requires exactly one non-empty line.
func ParseReferer(raw Raw) (Referer, error) {
	line, err := oneRawStr(raw)
	if err != nil {
		return "", parseErr(NameReferer, raw, err)
	}
	return Referer(line), nil
}
