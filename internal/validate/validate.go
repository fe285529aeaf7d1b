// SPDX-License-Identifier: MIT

// Package validate accumulates configuration validation failures so they can
// be reported together.
package validate

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/hdrkit/internal/header"
)

// Error is a single failed check.
type Error struct {
	Field   string // Field name that failed validation
	Value   any    // The invalid value
	Message string // Human-readable error message
}

func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validator accumulates validation errors.
type Validator struct {
	errors []Error
}

// ValidationError bundles multiple validation errors into a single error value.
type ValidationError struct {
	errors []Error
}

// New creates a new validator.
func New() *Validator {
	return &Validator{errors: make([]Error, 0)}
}

// AddError records a failure for field.
func (v *Validator) AddError(field, message string, value any) {
	v.errors = append(v.errors, Error{Field: field, Value: value, Message: message})
}

// IsValid returns true if no errors have been accumulated.
func (v *Validator) IsValid() bool { return len(v.errors) == 0 }

// Errors returns all accumulated validation errors.
func (v *Validator) Errors() []Error { return v.errors }

// Err returns nil when valid, otherwise a ValidationError snapshot.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	return ValidationError{errors: slices.Clone(v.errors)}
}

// Errors returns the individual failures.
func (e ValidationError) Errors() []Error { return e.errors }

func (e ValidationError) Error() string {
	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// URL checks syntax, host presence and, when given, the scheme.
func (v *Validator) URL(field, value string, allowedSchemes []string) {
	if value == "" {
		v.AddError(field, "URL cannot be empty", value)
		return
	}
	u, err := url.Parse(value)
	if err != nil {
		v.AddError(field, fmt.Sprintf("invalid URL: %v", err), value)
		return
	}
	if u.Host == "" {
		v.AddError(field, "URL must have a host", value)
		return
	}
	if len(allowedSchemes) > 0 && !slices.Contains(allowedSchemes, u.Scheme) {
		v.AddError(field, fmt.Sprintf("unsupported URL scheme %q (allowed: %v)", u.Scheme, allowedSchemes), value)
	}
}

// ListenAddr checks a host:port listen address. The host may be empty.
func (v *Validator) ListenAddr(field, addr string) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		v.AddError(field, fmt.Sprintf("invalid listen address: %v", err), addr)
		return
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		v.AddError(field, fmt.Sprintf("invalid port %q", port), addr)
	}
}

// Range validates that an integer is within [minVal, maxVal].
func (v *Validator) Range(field string, value, minVal, maxVal int) {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("value must be between %d and %d, got %d", minVal, maxVal, value), value)
	}
}

// Fraction validates that value is within [0, 1].
func (v *Validator) Fraction(field string, value float64) {
	if value < 0 || value > 1 {
		v.AddError(field, fmt.Sprintf("value must be between 0 and 1, got %g", value), value)
	}
}

// PositiveDuration validates d > 0.
func (v *Validator) PositiveDuration(field string, d time.Duration) {
	if d <= 0 {
		v.AddError(field, fmt.Sprintf("duration must be positive, got %s", d), d)
	}
}

// Directory validates a directory path. A missing directory is created
// unless mustExist is set.
func (v *Validator) Directory(field, path string, mustExist bool) {
	if path == "" {
		v.AddError(field, "directory path cannot be empty", path)
		return
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		v.AddError(field, fmt.Sprintf("invalid path: %v", err), path)
		return
	}

	info, err := os.Stat(absPath)
	switch {
	case os.IsNotExist(err) && mustExist:
		v.AddError(field, "directory does not exist", path)
	case os.IsNotExist(err):
		if err := os.MkdirAll(absPath, 0o750); err != nil {
			v.AddError(field, fmt.Sprintf("cannot create directory: %v", err), path)
		}
	case err != nil:
		v.AddError(field, fmt.Sprintf("cannot access directory: %v", err), path)
	case !info.IsDir():
		v.AddError(field, "path is not a directory", path)
	}
}

// NotEmpty validates that a string is not empty or whitespace-only.
func (v *Validator) NotEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "value cannot be empty", value)
	}
}

// OneOf validates that value is one of allowed.
func (v *Validator) OneOf(field, value string, allowed []string) {
	if !slices.Contains(allowed, value) {
		v.AddError(field, fmt.Sprintf("value must be one of %v, got %q", allowed, value), value)
	}
}

// Positive validates value > 0.
func (v *Validator) Positive(field string, value int) {
	if value <= 0 {
		v.AddError(field, fmt.Sprintf("value must be positive, got %d", value), value)
	}
}

// NonNegative validates value >= 0.
func (v *Validator) NonNegative(field string, value int) {
	if value < 0 {
		v.AddError(field, fmt.Sprintf("value cannot be negative, got %d", value), value)
	}
}

// Custom records the error returned by check, if any.
func (v *Validator) Custom(field string, value any, check func(any) error) {
	if err := check(value); err != nil {
		v.AddError(field, err.Error(), value)
	}
}

// CacheControl validates a Cache-Control header value. Empty is allowed.
func (v *Validator) CacheControl(field, value string) {
	if value == "" {
		return
	}
	cc, err := header.ParseCacheControl(header.Raw{value})
	if err != nil {
		v.AddError(field, err.Error(), value)
		return
	}
	// Skipped elements parse silently; config must be exact.
	if got, want := len(cc), len(strings.Split(value, ",")); got != want {
		v.AddError(field, fmt.Sprintf("%d of %d directives are invalid", want-got, want), value)
	}
}

// CIDRList validates CIDR or bare IP entries and rejects trust-all and
// unspecified networks.
func (v *Validator) CIDRList(field string, entries []string) {
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if ip, ipnet, err := net.ParseCIDR(entry); err == nil {
			ones, bits := ipnet.Mask.Size()
			switch {
			case ones == 0:
				v.AddError(field, fmt.Sprintf("forbidden CIDR %q (trust-all is not allowed)", entry), entry)
			case ip.IsUnspecified() && ones == bits:
				v.AddError(field, fmt.Sprintf("unspecified address %q is not allowed", entry), entry)
			}
			continue
		}
		ip := net.ParseIP(entry)
		switch {
		case ip == nil:
			v.AddError(field, fmt.Sprintf("invalid entry %q (must be CIDR or IP)", entry), entry)
		case ip.IsUnspecified():
			v.AddError(field, fmt.Sprintf("unspecified address %q is not allowed", entry), entry)
		}
	}
}

// PathWithinRoot validates that a relative path stays inside rootDir,
// following symlinks when the target exists.
func (v *Validator) PathWithinRoot(field, path, rootDir string) {
	if path == "" {
		return
	}
	if filepath.IsAbs(path) {
		v.AddError(field, fmt.Sprintf("must be relative path, got absolute: %s", path), path)
		return
	}
	cleaned := filepath.Clean(path)
	if !filepath.IsLocal(cleaned) {
		v.AddError(field, fmt.Sprintf("is not a local path: %s", path), path)
		return
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		v.AddError(field, fmt.Sprintf("cannot resolve root directory: %v", err), path)
		return
	}
	fullPath := filepath.Join(absRoot, cleaned)
	if _, err := os.Lstat(fullPath); err != nil {
		return
	}
	resolved, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		v.AddError(field, fmt.Sprintf("symlink resolution failed: %v", err), path)
		return
	}
	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		resolvedRoot = absRoot
	}
	rel, err := filepath.Rel(resolvedRoot, resolved)
	if err != nil || !filepath.IsLocal(rel) && rel != "." {
		v.AddError(field, fmt.Sprintf("path escapes root directory: %s", path), path)
	}
}
