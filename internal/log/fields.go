// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldService      = "service"
	FieldVersion      = "version"
	FieldRequestID    = "request_id"
	FieldConnectionID = "conn_id"

	// Event fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// HTTP fields
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldRemoteAddr = "remote_addr"
	FieldHeader     = "header"
	FieldBytes      = "bytes"
	FieldDuration   = "duration_ms"

	// Cache fields
	FieldCacheKey    = "cache_key"
	FieldCacheResult = "cache_result"
)
