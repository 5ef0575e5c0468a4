package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/utcsync/mcp-time-server/pkg/protocol"
)

func TestObserveRequestRecordsOutcome(t *testing.T) {
	provider := newTestMetrics(t)
	in := &Instrumentation{Metrics: provider}

	ctx, done := in.ObserveRequest(context.Background(), "tools/list")
	resp, err := protocol.NewResponse(1, map[string]any{"tools": []any{}})
	require.NoError(t, err)
	done(resp)

	ctx, done = in.ObserveRequest(ctx, "tools/call")
	errResp, err := protocol.NewErrorResponse(2, protocol.ErrCodeInvalidParams, "Invalid parameters: timezone required", nil)
	require.NoError(t, err)
	done(errResp)

	body := scrape(t, provider)
	assert.Contains(t, body, `method="tools/list"`)
	assert.Contains(t, body, `status="success"`)
	assert.Contains(t, body, `method="tools/call"`)
	assert.Contains(t, body, `status="error"`)
	assert.Contains(t, body, `code="-32602"`)
}

func TestObserveRequestOpensSpanWhenTracing(t *testing.T) {
	tracer, err := NewTracingProvider(TracingConfig{ExporterType: ExporterTypeNoop})
	require.NoError(t, err)
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	in := &Instrumentation{Tracer: tracer}

	ctx, done := in.ObserveRequest(context.Background(), "initialize")
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	done(nil)
}

func TestObserveToolCallRecordsStatus(t *testing.T) {
	provider := newTestMetrics(t)
	in := &Instrumentation{Metrics: provider}

	_, done := in.ObserveToolCall(context.Background(), "get_time")
	done(false)

	_, done = in.ObserveToolCall(context.Background(), "get_time")
	done(true)

	body := scrape(t, provider)
	assert.Contains(t, body, `tool="get_time"`)
	assert.Contains(t, body, `status="success"`)
	assert.Contains(t, body, `status="error"`)
}

func TestZeroInstrumentationIsSafe(t *testing.T) {
	in := &Instrumentation{}

	ctx, doneReq := in.ObserveRequest(context.Background(), "tools/list")
	doneReq(nil)

	_, doneTool := in.ObserveToolCall(ctx, "get_time")
	doneTool(false)

	_, donePrompt := in.ObservePromptRender(ctx, "time")
	donePrompt(nil)

	handler := in.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPMiddlewareLabelsByMatchedPattern(t *testing.T) {
	provider := newTestMetrics(t)
	in := &Instrumentation{Metrics: provider}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/time/timezone/{tz...}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := in.HTTPMiddleware(mux)

	for _, target := range []string{"/api/time/timezone/Asia/Tokyo", "/api/time/timezone/UTC"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	body := scrape(t, provider)
	assert.Contains(t, body, `path="GET /api/time/timezone/{tz...}"`)
	assert.NotContains(t, body, "Tokyo")
}

func TestHTTPMiddlewareCapturesWrittenStatus(t *testing.T) {
	provider := newTestMetrics(t)
	in := &Instrumentation{Metrics: provider}

	handler := in.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Contains(t, scrape(t, provider), `code="404"`)
}

func TestHTTPMiddlewareObservesDuration(t *testing.T) {
	provider := newTestMetrics(t)
	in := &Instrumentation{Metrics: provider}

	handler := in.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unix", nil))

	body := scrape(t, provider)
	assert.Contains(t, body, "mcp_http_request_duration_milliseconds_bucket")
	assert.Contains(t, body, "mcp_http_request_duration_milliseconds_count")
}
