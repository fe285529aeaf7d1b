// SPDX-License-Identifier: MIT

// Package metrics holds the Prometheus collectors shared across hdrkit components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Header metrics
	headerParseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hdrkit_header_parse_total",
		Help: "Typed header parse attempts by header name and outcome",
	}, []string{"header", "outcome"}) // outcome=success|failure

	// Raw HTTP/1.x server metrics
	rawResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hdrkit_raw_responses_total",
		Help: "Responses written by the raw HTTP/1.x server by status code",
	}, []string{"status"})

	rawBadRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hdrkit_raw_bad_requests_total",
		Help: "Requests rejected by the raw server before reaching a handler",
	})

	rawConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hdrkit_raw_connections_open",
		Help: "Connections currently held by the raw server",
	})

	// Cache metrics
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hdrkit_cache_lookups_total",
		Help: "Caching transport lookups by result",
	}, []string{"result"}) // result=hit|miss|revalidated|bypass|only_if_cached

	cacheStores = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hdrkit_cache_stores_total",
		Help: "Caching transport store decisions by outcome",
	}, []string{"outcome"}) // outcome=stored|uncacheable

	// File serving metrics
	fileRequestsDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hdrkit_file_requests_denied_total",
		Help: "Static file requests denied by reason",
	}, []string{"reason"})

	fileNotModified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hdrkit_file_not_modified_total",
		Help: "Static file requests answered with 304 Not Modified",
	})
)

// RecordHeaderParse counts a typed parse attempt for header.
func RecordHeaderParse(header string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	headerParseTotal.WithLabelValues(header, outcome).Inc()
}

// RecordRawResponse counts a response written by the raw server.
func RecordRawResponse(status string) {
	rawResponsesTotal.WithLabelValues(status).Inc()
}

// RecordRawBadRequest counts a request rejected during parsing.
func RecordRawBadRequest() {
	rawBadRequests.Inc()
}

// RawConnectionOpened tracks a newly accepted connection.
func RawConnectionOpened() { rawConnectionsOpen.Inc() }

// RawConnectionClosed tracks a closed connection.
func RawConnectionClosed() { rawConnectionsOpen.Dec() }

// RecordCacheLookup counts a caching transport lookup result.
func RecordCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// RecordCacheStore counts a store decision.
func RecordCacheStore(stored bool) {
	outcome := "uncacheable"
	if stored {
		outcome = "stored"
	}
	cacheStores.WithLabelValues(outcome).Inc()
}

// RecordFileRequestDenied counts a denied static file request.
func RecordFileRequestDenied(reason string) {
	fileRequestsDenied.WithLabelValues(reason).Inc()
}

// RecordFileNotModified counts a conditional GET answered with 304.
func RecordFileNotModified() {
	fileNotModified.Inc()
}
