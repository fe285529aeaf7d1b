// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package server

import (
	"fmt"
	"net/http"
	"strconv"
)

// Version is an HTTP/1.x protocol version.
type Version int

const (
	HTTP10 Version = iota
	HTTP11
)

func (v Version) String() string {
	if v == HTTP10 {
		return "HTTP/1.0"
	}
	return "HTTP/1.1"
}

// ParseVersion accepts "HTTP/1.0" and "HTTP/1.1".
func ParseVersion(s string) (Version, error) {
	major, minor, ok := http.ParseHTTPVersion(s)
	if !ok || major != 1 || minor > 1 {
		return 0, fmt.Errorf("unsupported protocol version %q", s)
	}
	if minor == 0 {
		return HTTP10, nil
	}
	return HTTP11, nil
}

// StatusCode is an HTTP status code that formats with its reason phrase.
type StatusCode int

func (s StatusCode) String() string {
	if text := http.StatusText(int(s)); text != "" {
		return strconv.Itoa(int(s)) + " " + text
	}
	return strconv.Itoa(int(s))
}
