// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package header

import (
	"errors"
	"strings"

	"golang.org/x/net/http/httpguts"
)

var (
	errEmptyList   = errors.New("no valid elements")
	errNotOneLine  = errors.New("expected exactly one field line")
	errEmptyValue  = errors.New("empty value")
	errMissingArg  = errors.New("missing directive argument")
	errDuplicate   = errors.New("duplicate directive")
	errMissingMaxA = errors.New("missing max-age directive")
)

// commaDelimited splits every line on commas, trims optional whitespace and
// feeds each non-empty element to parse. Elements parse rejects are skipped.
func commaDelimited[T any](raw Raw, parse func(string) (T, bool)) []T {
	var out []T
	for _, line := range raw {
		for _, elem := range strings.Split(line, ",") {
			elem = strings.TrimSpace(elem)
			if elem == "" {
				continue
			}
			if v, ok := parse(elem); ok {
				out = append(out, v)
			}
		}
	}
	return out
}

// oneRawStr returns the trimmed value of a field that must occur on exactly one line.
func oneRawStr(raw Raw) (string, error) {
	line, ok := raw.One()
	if !ok {
		return "", errNotOneLine
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errEmptyValue
	}
	return line, nil
}

func unquote(s string) string { return strings.Trim(s, `"`) }

// isToken reports whether s is an RFC 7230 token.
func isToken(s string) bool { return httpguts.ValidHeaderFieldName(s) }
