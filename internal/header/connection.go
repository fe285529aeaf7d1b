// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package header

import (
	"strings"
)

// NameConnection is the canonical Connection field name.
const NameConnection = "Connection"

// OptionKind enumerates Connection option categories.
type OptionKind int

const (
	// HeaderOption names another header field that is hop-by-hop for this connection.
	HeaderOption OptionKind = iota
	KeepAlive
	Close
)

// ConnectionOption is one element of a Connection list.
type ConnectionOption struct {
	Kind OptionKind
	// Field is the header name for HeaderOption; spelling is preserved.
	Field string
}

// ConnectionHeader builds a header-name option.
func ConnectionHeader(name string) ConnectionOption {
	return ConnectionOption{Kind: HeaderOption, Field: name}
}

// ParseConnectionOption never fails on a non-empty element.
func ParseConnectionOption(s string) ConnectionOption {
	switch {
	case strings.EqualFold(s, "keep-alive"):
		return ConnectionOption{Kind: KeepAlive}
	case strings.EqualFold(s, "close"):
		return ConnectionOption{Kind: Close}
	default:
		return ConnectionHeader(s)
	}
}

func (o ConnectionOption) String() string {
	switch o.Kind {
	case KeepAlive:
		return "keep-alive"
	case Close:
		return "close"
	default:
		return o.Field
	}
}

// Equal compares header-name options case-insensitively.
func (o ConnectionOption) Equal(other ConnectionOption) bool {
	if o.Kind != other.Kind {
		return false
	}
	return o.Kind != HeaderOption || strings.EqualFold(o.Field, other.Field)
}

// Connection is the Connection header (RFC 7230 section 6.1).
//
//	Connection        = 1#connection-option
//	connection-option = token
type Connection []ConnectionOption

// ConnectionClose returns "Connection: close".
func ConnectionClose() Connection { return Connection{{Kind: Close}} }

// ConnectionKeepAlive returns "Connection: keep-alive".
func ConnectionKeepAlive() Connection { return Connection{{Kind: KeepAlive}} }

func (Connection) Name() string { return NameConnection }

func (c Connection) String() string {
	parts := make([]string, len(c))
	for i, o := range c {
		parts[i] = o.String()
	}
	return strings.Join(parts, ", ")
}

// ParseConnection requires at least one option.
func ParseConnection(raw Raw) (Connection, error) {
	opts := commaDelimited(raw, func(s string) (ConnectionOption, bool) {
		return ParseConnectionOption(s), true
	})
	if len(opts) == 0 {
		return nil, parseErr(NameConnection, raw, errEmptyList)
	}
	return Connection(opts), nil
}

// Has reports whether opt is listed.
func (c Connection) Has(opt ConnectionOption) bool {
	for _, o := range c {
		if o.Equal(opt) {
			return true
		}
	}
	return false
}

// Equal compares option lists element-wise.
func (c Connection) Equal(other Connection) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if !c[i].Equal(other[i]) {
			return false
		}
	}
	return true
}
