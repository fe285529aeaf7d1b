// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:      false,
		ServiceName:  "test-service",
		ExporterType: ExporterGRPC,
	})
	require.NoError(t, err)
	assert.Nil(t, provider.tp, "expected noop provider")

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording(), "noop tracer spans must not record")
	span.End()
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "test-service",
		ExporterType: "invalid",
	})
	require.Error(t, err)
	assert.Equal(t, "unsupported exporter type: invalid (supported: grpc, http)", err.Error())
}

func TestNewProvider_HTTPExporterLazyConnect(t *testing.T) {
	// otlptracehttp does not dial until the first export, so construction
	// succeeds without a collector.
	provider, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "hdrkit-test",
		ExporterType: ExporterHTTP,
		Endpoint:     "127.0.0.1:1",
		SamplingRate: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, provider.tp)

	_, span := Tracer("test").Start(context.Background(), "recorded")
	assert.True(t, span.IsRecording())
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = provider.Shutdown(ctx)

	_, err = NewProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0.0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased"},
	}
	for _, tt := range tests {
		desc := newSampler(tt.rate).Description()
		assert.True(t, strings.HasPrefix(desc, tt.want), "rate %v: got %q", tt.rate, desc)
	}
}

func TestProvider_ShutdownNoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestTracer(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: false, ServiceName: "test-service"})
	require.NoError(t, err)

	tracer := Tracer("test-tracer")
	require.NotNil(t, tracer)

	ctx, span := tracer.Start(context.Background(), "test-span")
	defer span.End()
	assert.NotNil(t, trace.SpanFromContext(ctx))
}
