// SPDX-License-Identifier: MIT

// Package telemetry provides OpenTelemetry tracing for hdrkit.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by every span hdrkit emits.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPRequestIDKey  = "http.request_id"

	HeaderNameKey  = "header.name"
	HeaderValidKey = "header.valid"
	HeaderCountKey = "header.count"

	CacheResultKey = "cache.result"
	CacheStoreKey  = "cache.store"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// HeaderAttributes describes the outcome of a typed header parse.
func HeaderAttributes(name string, valid bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HeaderNameKey, name),
		attribute.Bool(HeaderValidKey, valid),
	}
}

// CacheAttributes records how a cached lookup was answered. store may be
// empty when the backend is not known.
func CacheAttributes(result, store string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(CacheResultKey, result)}
	if store != "" {
		attrs = append(attrs, attribute.String(CacheStoreKey, store))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
