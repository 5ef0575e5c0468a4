package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/utcsync/mcp-time-server/pkg/protocol"
)

// Instrumentation bundles the tracing and metrics providers behind nil-safe
// helpers. A zero Instrumentation is valid and records nothing, so callers
// never check which providers are configured.
type Instrumentation struct {
	Tracer  *TracingProvider
	Metrics MetricsProvider
}

// ObserveRequest opens a server span for a dispatched method and returns the
// possibly updated context plus a completion callback. The callback records
// duration, status and the error code carried by the response, if any.
func (in *Instrumentation) ObserveRequest(ctx context.Context, method string) (context.Context, func(*protocol.Response)) {
	start := time.Now()

	var span trace.Span
	if in.Tracer != nil {
		ctx, span = in.Tracer.StartMethodSpan(ctx, method, trace.SpanKindServer)
		span.SetAttributes(
			attribute.String("rpc.method", method),
			attribute.String("rpc.system", "mcp"),
		)
	}

	return ctx, func(resp *protocol.Response) {
		duration := time.Since(start)

		status := "success"
		if resp != nil && resp.Error != nil {
			status = "error"
		}

		if in.Metrics != nil {
			in.Metrics.RecordRequest(ctx, method, status, duration)
			if resp != nil && resp.Error != nil {
				in.Metrics.RecordError(ctx, strconv.Itoa(resp.Error.Code), method)
			}
		}

		if span != nil {
			span.SetAttributes(attribute.Float64("rpc.duration_ms", durationMillis(duration)))
			if resp != nil && resp.Error != nil {
				span.SetAttributes(
					attribute.Int("rpc.error.code", resp.Error.Code),
					attribute.String("rpc.error.message", resp.Error.Message),
				)
				span.SetStatus(codes.Error, resp.Error.Message)
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.End()
		}
	}
}

// ObserveToolCall opens an internal span for a tool invocation. The callback
// takes whether the tool reported an execution error.
func (in *Instrumentation) ObserveToolCall(ctx context.Context, tool string) (context.Context, func(isError bool)) {
	start := time.Now()

	var span trace.Span
	if in.Tracer != nil {
		ctx, span = in.Tracer.StartSpan(ctx, "tool."+tool,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attribute.String("mcp.tool", tool)),
		)
	}

	return ctx, func(isError bool) {
		duration := time.Since(start)

		status := "success"
		if isError {
			status = "error"
		}

		if in.Metrics != nil {
			in.Metrics.RecordToolCall(ctx, tool, status, duration)
		}

		if span != nil {
			if isError {
				span.SetStatus(codes.Error, "tool reported an error")
			}
			span.End()
		}
	}
}

// ObservePromptRender opens an internal span for a prompt render
func (in *Instrumentation) ObservePromptRender(ctx context.Context, prompt string) (context.Context, func(err error)) {
	start := time.Now()

	var span trace.Span
	if in.Tracer != nil {
		ctx, span = in.Tracer.StartSpan(ctx, "prompt."+prompt,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attribute.String("mcp.prompt", prompt)),
		)
	}

	return ctx, func(err error) {
		duration := time.Since(start)

		status := "success"
		if err != nil {
			status = "error"
		}

		if in.Metrics != nil {
			in.Metrics.RecordPromptRender(ctx, prompt, status, duration)
		}

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}
	}
}

// HTTPMiddleware instruments an HTTP handler with request metrics and, when
// tracing is configured, a server span continuing any inbound trace context.
// The metric path label uses the matched mux pattern so path parameters do
// not fan out into new series.
func (in *Instrumentation) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		var span trace.Span
		if in.Tracer != nil {
			ctx = in.Tracer.Extract(ctx, propagation.HeaderCarrier(r.Header))
			ctx, span = in.Tracer.StartSpan(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				),
			)
			defer span.End()
		}

		// The mux annotates the request it serves with the matched pattern,
		// so hold on to the clone it will see
		r = r.WithContext(ctx)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		duration := time.Since(start)

		if in.Metrics != nil {
			path := r.Pattern
			if path == "" {
				path = r.URL.Path
			}
			in.Metrics.RecordHTTPRequest(ctx, path, r.Method, recorder.status, duration)
		}

		if span != nil {
			span.SetAttributes(attribute.Int("http.status_code", recorder.status))
			if recorder.status >= 500 {
				span.SetStatus(codes.Error, http.StatusText(recorder.status))
			}
		}
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}
