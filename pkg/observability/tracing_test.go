package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestNewTracingProviderNoop(t *testing.T) {
	provider, err := NewTracingProvider(TracingConfig{
		ServiceName:    "mcp-utc-time-server",
		ServiceVersion: "test",
	})
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	ctx, span := provider.StartMethodSpan(context.Background(), "tools/call", trace.SpanKindServer)
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	span.End()
}

func TestCreateExporterRejectsUnknownType(t *testing.T) {
	_, err := NewTracingProvider(TracingConfig{ExporterType: "jaeger"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported exporter type")
}

func TestCreateSamplerBounds(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want string
	}{
		{name: "full rate samples everything", rate: 1.0, want: "AlwaysOnSampler"},
		{name: "zero treated as unset", rate: 0, want: "AlwaysOnSampler"},
		{name: "negative rate drops everything", rate: -1, want: "AlwaysOffSampler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := TracingConfig{SampleRate: tt.rate}
			if config.SampleRate == 0 {
				config.SampleRate = 1.0
			}
			sampler := createSampler(config)
			assert.Equal(t, tt.want, sampler.Description())
		})
	}
}

func TestMethodSamplerHonorsLists(t *testing.T) {
	sampler := createSampler(TracingConfig{
		SampleRate:   1.0,
		AlwaysSample: []string{"tools/call"},
		NeverSample:  []string{"tools/list"},
	})

	listed := sdktrace.SamplingParameters{
		Name:       "mcp.tools/list",
		Attributes: []attribute.KeyValue{attribute.String("mcp.method", "tools/list")},
	}
	assert.Equal(t, sdktrace.Drop, sampler.ShouldSample(listed).Decision)

	called := sdktrace.SamplingParameters{
		Name:       "mcp.tools/call",
		Attributes: []attribute.KeyValue{attribute.String("mcp.method", "tools/call")},
	}
	assert.Equal(t, sdktrace.RecordAndSample, sampler.ShouldSample(called).Decision)

	unlisted := sdktrace.SamplingParameters{
		Name:       "mcp.initialize",
		Attributes: []attribute.KeyValue{attribute.String("mcp.method", "initialize")},
	}
	assert.Equal(t, sdktrace.RecordAndSample, sampler.ShouldSample(unlisted).Decision)
}

func TestRecordErrorMarksSpan(t *testing.T) {
	provider, err := NewTracingProvider(TracingConfig{ExporterType: ExporterTypeNoop})
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	ctx, span := provider.StartSpan(context.Background(), "test")
	provider.RecordError(ctx, assert.AnError)
	span.End()
}
