// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package header

import (
	"fmt"
	"sort"
)

type parseFunc func(Raw) (Header, error)

func erase[T Header](parse func(Raw) (T, error)) parseFunc {
	return func(raw Raw) (Header, error) {
		h, err := parse(raw)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
}

var registry = map[string]struct {
	name  string
	parse parseFunc
}{
	key(NameCacheControl):            {NameCacheControl, erase(ParseCacheControl)},
	key(NameConnection):              {NameConnection, erase(ParseConnection)},
	key(NameStrictTransportSecurity): {NameStrictTransportSecurity, erase(ParseStrictTransportSecurity)},
	key(NameExpires):                 {NameExpires, erase(ParseExpires)},
	key(NameLastModified):            {NameLastModified, erase(ParseLastModified)},
	key(NameIfModifiedSince):         {NameIfModifiedSince, erase(ParseIfModifiedSince)},
	key(NameDate):                    {NameDate, erase(ParseDate)},
	key(NameReferer):                 {NameReferer, erase(ParseReferer)},
}

// KnownNames lists the canonical names of every typed header, sorted.
func KnownNames() []string {
	names := make([]string, 0, len(registry))
	for _, e := range registry {
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}

// IsKnown reports whether name has a typed model.
func IsKnown(name string) bool {
	_, ok := registry[key(name)]
	return ok
}

// ParseKnown parses raw with the typed model registered for name.
func ParseKnown(name string, raw Raw) (Header, error) {
	e, ok := registry[key(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHeader, name)
	}
	return e.parse(raw)
}

// Canonicalize round-trips a raw value through its typed model.
func Canonicalize(name string, raw Raw) (string, error) {
	h, err := ParseKnown(name, raw)
	if err != nil {
		return "", err
	}
	return h.String(), nil
}
