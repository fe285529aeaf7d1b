// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package header models HTTP header fields as typed values.
//
// Every typed header implements Header: it reports its canonical field name
// and formats itself as a single field value. Parsing goes the other way and
// always starts from Raw, the ordered field-line values received for one name.
// Headers keeps raw lines keyed case-insensitively; typed views are parsed on
// demand with Typed:
//
//	hs := header.NewHeaders()
//	hs.Set(header.CacheControl{header.MaxAge(86400), header.Directive(header.Private)})
//	cc, err := header.Typed(hs, header.ParseCacheControl)
//
// All parse failures satisfy errors.Is(err, ErrInvalidHeader).
package header
