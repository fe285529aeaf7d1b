// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package header

import (
	"net/http"
	"time"
)

const (
	NameExpires         = "Expires"
	NameLastModified    = "Last-Modified"
	NameIfModifiedSince = "If-Modified-Since"
	NameDate            = "Date"
)

// HTTPDate is an HTTP-date (RFC 7231 section 7.1.1.1) at second precision.
type HTTPDate struct {
	time.Time
}

// NewHTTPDate truncates t to whole seconds in UTC.
func NewHTTPDate(t time.Time) HTTPDate {
	return HTTPDate{Time: t.UTC().Truncate(time.Second)}
}

// ParseHTTPDate accepts IMF-fixdate, the obsolete RFC 850 form and asctime.
func ParseHTTPDate(s string) (HTTPDate, error) {
	t, err := http.ParseTime(s)
	if err != nil {
		return HTTPDate{}, err
	}
	return NewHTTPDate(t), nil
}

// String always emits IMF-fixdate.
func (d HTTPDate) String() string { return d.UTC().Format(http.TimeFormat) }

func parseDateField(name string, raw Raw) (HTTPDate, error) {
	line, err := oneRawStr(raw)
	if err != nil {
		return HTTPDate{}, parseErr(name, raw, err)
	}
	d, err := ParseHTTPDate(line)
	if err != nil {
		return HTTPDate{}, parseErr(name, raw, err)
	}
	return d, nil
}

// Expires is the Expires header (RFC 7234 section 5.3).
type Expires HTTPDate

func (Expires) Name() string     { return NameExpires }
func (e Expires) String() string { return HTTPDate(e).String() }

// ParseExpires parses a single HTTP-date line.
func ParseExpires(raw Raw) (Expires, error) {
	d, err := parseDateField(NameExpires, raw)
	return Expires(d), err
}

// LastModified is the Last-Modified header (RFC 7232 section 2.2).
type LastModified HTTPDate

func (LastModified) Name() string     { return NameLastModified }
func (l LastModified) String() string { return HTTPDate(l).String() }

// ParseLastModified parses a single HTTP-date line.
func ParseLastModified(raw Raw) (LastModified, error) {
	d, err := parseDateField(NameLastModified, raw)
	return LastModified(d), err
}

// IfModifiedSince is the If-Modified-Since header (RFC 7232 section 3.3).
type IfModifiedSince HTTPDate

func (IfModifiedSince) Name() string     { return NameIfModifiedSince }
func (i IfModifiedSince) String() string { return HTTPDate(i).String() }

// ParseIfModifiedSince parses a single HTTP-date line.
func ParseIfModifiedSince(raw Raw) (IfModifiedSince, error) {
	d, err := parseDateField(NameIfModifiedSince, raw)
	return IfModifiedSince(d), err
}

// Date is the origination Date header (RFC 7231 section 7.1.1.2).
type Date HTTPDate

func (Date) Name() string     { return NameDate }
func (d Date) String() string { return HTTPDate(d).String() }

// ParseDate parses a single HTTP-date line.
func ParseDate(raw Raw) (Date, error) {
	d, err := parseDateField(NameDate, raw)
	return Date(d), err
}
