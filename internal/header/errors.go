// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package header

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHeader classifies every header parse failure.
	// Use errors.Is(err, ErrInvalidHeader) instead of type switches.
	ErrInvalidHeader = errors.New("invalid header")

	// ErrNotPresent is returned by Typed when the field is absent.
	ErrNotPresent = errors.New("header not present")

	// ErrUnknownHeader is returned by ParseKnown for names without a typed model.
	ErrUnknownHeader = errors.New("unknown header")

	// ErrInvalidFieldName rejects names that are not RFC 7230 tokens.
	ErrInvalidFieldName = errors.New("invalid header field name")

	// ErrInvalidFieldValue rejects values carrying CR, LF or NUL.
	ErrInvalidFieldValue = errors.New("invalid header field value")
)

// ParseError describes a field value that could not be parsed into its typed form.
type ParseError struct {
	Name  string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s header %q", e.Name, e.Value)
	}
	return fmt.Sprintf("invalid %s header %q: %v", e.Name, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports every ParseError as ErrInvalidHeader.
func (e *ParseError) Is(target error) bool { return target == ErrInvalidHeader }

func parseErr(name string, raw Raw, cause error) error {
	return &ParseError{Name: name, Value: raw.String(), Err: cause}
}
