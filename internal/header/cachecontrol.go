// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package header

import (
	"fmt"
	"strconv"
	"strings"
)

// NameCacheControl is the canonical Cache-Control field name.
const NameCacheControl = "Cache-Control"

// DirectiveKind enumerates the Cache-Control directives known to RFC 7234.
type DirectiveKind int

const (
	Extension DirectiveKind = iota
	NoCache
	NoStore
	NoTransform
	OnlyIfCached
	MaxAgeKind
	MaxStaleKind
	MinFreshKind
	MustRevalidate
	Public
	Private
	ProxyRevalidate
	SMaxAgeKind
)

var directiveNames = map[DirectiveKind]string{
	NoCache:         "no-cache",
	NoStore:         "no-store",
	NoTransform:     "no-transform",
	OnlyIfCached:    "only-if-cached",
	MaxAgeKind:      "max-age",
	MaxStaleKind:    "max-stale",
	MinFreshKind:    "min-fresh",
	MustRevalidate:  "must-revalidate",
	Public:          "public",
	Private:         "private",
	ProxyRevalidate: "proxy-revalidate",
	SMaxAgeKind:     "s-maxage",
}

var directiveByName = func() map[string]DirectiveKind {
	m := make(map[string]DirectiveKind, len(directiveNames))
	for k, n := range directiveNames {
		m[n] = k
	}
	return m
}()

func (k DirectiveKind) hasSeconds() bool {
	switch k {
	case MaxAgeKind, MaxStaleKind, MinFreshKind, SMaxAgeKind:
		return true
	}
	return false
}

func (k DirectiveKind) String() string {
	if n, ok := directiveNames[k]; ok {
		return n
	}
	return "extension"
}

// CacheDirective is one element of a Cache-Control list.
// Seconds is meaningful for max-age, max-stale, min-fresh and s-maxage.
// Name, Arg and HasArg are meaningful for extensions.
type CacheDirective struct {
	Kind    DirectiveKind
	Seconds uint32
	Name    string
	Arg     string
	HasArg  bool
}

// Directive builds an argument-less directive such as NoCache.
func Directive(kind DirectiveKind) CacheDirective { return CacheDirective{Kind: kind} }

// MaxAge builds "max-age=secs".
func MaxAge(secs uint32) CacheDirective { return CacheDirective{Kind: MaxAgeKind, Seconds: secs} }

// MaxStale builds "max-stale=secs".
func MaxStale(secs uint32) CacheDirective { return CacheDirective{Kind: MaxStaleKind, Seconds: secs} }

// MinFresh builds "min-fresh=secs".
func MinFresh(secs uint32) CacheDirective { return CacheDirective{Kind: MinFreshKind, Seconds: secs} }

// SMaxAge builds "s-maxage=secs".
func SMaxAge(secs uint32) CacheDirective { return CacheDirective{Kind: SMaxAgeKind, Seconds: secs} }

// ExtensionDirective builds an extension directive. An empty arg omits "=arg".
func ExtensionDirective(name, arg string) CacheDirective {
	return CacheDirective{Kind: Extension, Name: name, Arg: arg, HasArg: arg != ""}
}

func (d CacheDirective) String() string {
	switch {
	case d.Kind == Extension && d.HasArg:
		return d.Name + "=" + d.Arg
	case d.Kind == Extension:
		return d.Name
	case d.Kind.hasSeconds():
		return d.Kind.String() + "=" + strconv.FormatUint(uint64(d.Seconds), 10)
	default:
		return d.Kind.String()
	}
}

// ParseCacheDirective parses a single list element.
func ParseCacheDirective(s string) (CacheDirective, error) {
	if s == "" {
		return CacheDirective{}, errEmptyValue
	}
	idx := strings.IndexByte(s, '=')
	if idx < 0 {
		if kind, ok := directiveByName[strings.ToLower(s)]; ok && !kind.hasSeconds() {
			return Directive(kind), nil
		}
		if !isToken(s) {
			return CacheDirective{}, fmt.Errorf("directive %q is not a token", s)
		}
		return CacheDirective{Kind: Extension, Name: s}, nil
	}
	if idx+1 >= len(s) {
		return CacheDirective{}, errMissingArg
	}
	name, arg := s[:idx], unquote(s[idx+1:])
	if kind, ok := directiveByName[strings.ToLower(name)]; ok && kind.hasSeconds() {
		secs, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return CacheDirective{}, fmt.Errorf("%s: %w", name, err)
		}
		return CacheDirective{Kind: kind, Seconds: uint32(secs)}, nil
	}
	if !isToken(name) {
		return CacheDirective{}, fmt.Errorf("directive %q is not a token", name)
	}
	return CacheDirective{Kind: Extension, Name: name, Arg: arg, HasArg: true}, nil
}

// CacheControl is the Cache-Control header (RFC 7234 section 5.2).
//
//	Cache-Control   = 1#cache-directive
//	cache-directive = token [ "=" ( token / quoted-string ) ]
type CacheControl []CacheDirective

func (CacheControl) Name() string { return NameCacheControl }

func (cc CacheControl) String() string {
	parts := make([]string, len(cc))
	for i, d := range cc {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

// ParseCacheControl merges every line into one directive list.
// Elements that do not parse are skipped; an empty result is an error.
func ParseCacheControl(raw Raw) (CacheControl, error) {
	directives := commaDelimited(raw, func(s string) (CacheDirective, bool) {
		d, err := ParseCacheDirective(s)
		return d, err == nil
	})
	if len(directives) == 0 {
		return nil, parseErr(NameCacheControl, raw, errEmptyList)
	}
	return CacheControl(directives), nil
}

// Has reports whether a directive of kind is present.
func (cc CacheControl) Has(kind DirectiveKind) bool {
	_, ok := cc.Find(kind)
	return ok
}

// Find returns the first directive of kind.
func (cc CacheControl) Find(kind DirectiveKind) (CacheDirective, bool) {
	for _, d := range cc {
		if d.Kind == kind {
			return d, true
		}
	}
	return CacheDirective{}, false
}

// Seconds returns the delta-seconds of the first directive of kind.
func (cc CacheControl) Seconds(kind DirectiveKind) (uint32, bool) {
	d, ok := cc.Find(kind)
	if !ok || !kind.hasSeconds() {
		return 0, false
	}
	return d.Seconds, true
}

// Extension returns the argument of the named extension directive.
func (cc CacheControl) Extension(name string) (arg string, found bool) {
	for _, d := range cc {
		if d.Kind == Extension && strings.EqualFold(d.Name, name) {
			return d.Arg, true
		}
	}
	return "", false
}
