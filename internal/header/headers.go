// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package header

import (
	"io"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Header is a typed HTTP header field.
type Header interface {
	// Name returns the canonical field name, e.g. "Cache-Control".
	Name() string
	// String formats the field value without the name.
	String() string
}

// Raw holds the field-line values received for a single field name, in order.
type Raw []string

// String joins the lines the way a recipient may combine them.
func (r Raw) String() string { return strings.Join(r, ", ") }

// One returns the single line when exactly one is present.
func (r Raw) One() (string, bool) {
	if len(r) != 1 {
		return "", false
	}
	return r[0], true
}

type field struct {
	name   string
	values Raw
}

// Headers is an ordered, case-insensitive collection of header fields.
// The zero value is not usable; call NewHeaders.
type Headers struct {
	fields map[string]*field
	order  []string
}

// NewHeaders returns an empty collection.
func NewHeaders() *Headers {
	return &Headers{fields: make(map[string]*field)}
}

// FromHTTP copies a net/http header map.
func FromHTTP(h http.Header) *Headers {
	hs := NewHeaders()
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range h[name] {
			hs.add(name, v)
		}
	}
	return hs
}

func key(name string) string { return strings.ToLower(name) }

// Set replaces any existing lines for h's name with its formatted value.
func (hs *Headers) Set(h Header) {
	hs.put(h.Name(), Raw{h.String()})
}

// SetRaw replaces the lines for name after validating name and values.
func (hs *Headers) SetRaw(name string, values ...string) error {
	if err := validate(name, values...); err != nil {
		return err
	}
	hs.put(name, append(Raw(nil), values...))
	return nil
}

// Append adds one more line for name.
func (hs *Headers) Append(name, value string) error {
	if err := validate(name, value); err != nil {
		return err
	}
	hs.add(name, value)
	return nil
}

func validate(name string, values ...string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return &ParseError{Name: name, Err: ErrInvalidFieldName}
	}
	for _, v := range values {
		if !httpguts.ValidHeaderFieldValue(v) {
			return &ParseError{Name: name, Value: v, Err: ErrInvalidFieldValue}
		}
	}
	return nil
}

func (hs *Headers) put(name string, values Raw) {
	k := key(name)
	if f, ok := hs.fields[k]; ok {
		f.values = values
		return
	}
	hs.fields[k] = &field{name: name, values: values}
	hs.order = append(hs.order, k)
}

func (hs *Headers) add(name, value string) {
	k := key(name)
	if f, ok := hs.fields[k]; ok {
		f.values = append(f.values, value)
		return
	}
	hs.fields[k] = &field{name: name, values: Raw{value}}
	hs.order = append(hs.order, k)
}

// Get returns the raw lines for name.
func (hs *Headers) Get(name string) (Raw, bool) {
	f, ok := hs.fields[key(name)]
	if !ok {
		return nil, false
	}
	return f.values, true
}

// Has reports whether name is present.
func (hs *Headers) Has(name string) bool {
	_, ok := hs.fields[key(name)]
	return ok
}

// Remove deletes name and reports whether it was present.
func (hs *Headers) Remove(name string) bool {
	k := key(name)
	if _, ok := hs.fields[k]; !ok {
		return false
	}
	delete(hs.fields, k)
	for i, o := range hs.order {
		if o == k {
			hs.order = append(hs.order[:i], hs.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of distinct field names.
func (hs *Headers) Len() int { return len(hs.order) }

// Names returns the field names as first spelled, sorted case-insensitively.
func (hs *Headers) Names() []string {
	keys := append([]string(nil), hs.order...)
	sort.Strings(keys)
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = hs.fields[k].name
	}
	return names
}

// Each calls fn for every field in insertion order.
func (hs *Headers) Each(fn func(name string, values Raw)) {
	for _, k := range hs.order {
		f := hs.fields[k]
		fn(f.name, f.values)
	}
}

// Clone returns a deep copy.
func (hs *Headers) Clone() *Headers {
	out := NewHeaders()
	hs.Each(func(name string, values Raw) {
		out.put(name, append(Raw(nil), values...))
	})
	return out
}

// HTTP converts the collection to a net/http header map.
func (hs *Headers) HTTP() http.Header {
	h := make(http.Header, hs.Len())
	hs.Each(func(name string, values Raw) {
		k := http.CanonicalHeaderKey(name)
		h[k] = append(h[k], values...)
	})
	return h
}

// WriteTo writes one "Name: value\r\n" line per stored value.
func (hs *Headers) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, k := range hs.order {
		f := hs.fields[k]
		for _, v := range f.values {
			n, err := io.WriteString(w, f.name+": "+v+"\r\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// Typed parses the field named by T out of hs.
// It returns ErrNotPresent when the field is absent.
func Typed[T Header](hs *Headers, parse func(Raw) (T, error)) (T, error) {
	var zero T
	raw, ok := hs.Get(zero.Name())
	if !ok {
		return zero, ErrNotPresent
	}
	return parse(raw)
}
