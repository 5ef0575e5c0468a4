// Package health serves the HTTP surface of the time server: the
// /health and /metrics scrape endpoints, the REST mirror of the time
// queries under /api/, and the JSON-RPC-over-HTTP endpoint at /mcp.
// Every document is composed fresh per request; nothing is cached
// between scrapes.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/utcsync/mcp-time-server/pkg/auth"
	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
	"github.com/utcsync/mcp-time-server/pkg/logging"
	"github.com/utcsync/mcp-time-server/pkg/ntp"
	"github.com/utcsync/mcp-time-server/pkg/observability"
	"github.com/utcsync/mcp-time-server/pkg/version"
)

const (
	// DefaultPort is the listening port when HEALTH_PORT is unset.
	DefaultPort = 3000

	// shutdownGrace bounds how long in-flight requests may run after
	// the serve context is cancelled.
	shutdownGrace = 5 * time.Second
)

// Server is the HTTP surface. It runs independently of the STDIO
// channel and shares only the immutable registry (through the rpc
// handler) and the read-only clock monitor with it.
type Server struct {
	port          int
	version       string
	containerMode bool
	apiEnabled    bool

	monitor   *ntp.Monitor
	metrics   observability.MetricsProvider
	rpc       http.Handler
	validator *auth.KeyValidator
	logger    logging.Logger
	instr     *observability.Instrumentation

	handler http.Handler
	httpSrv *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithPort sets the listening port.
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithVersion sets the version string reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithContainerMode marks the server as running under an orchestrator.
// The flag is reported through /api/ntp/status so operators can tell a
// broken daemon from an environment that never has one.
func WithContainerMode(on bool) Option {
	return func(s *Server) { s.containerMode = on }
}

// WithAPIEnabled toggles the REST mirror and the /mcp endpoint.
// /health and /metrics are always served.
func WithAPIEnabled(on bool) Option {
	return func(s *Server) { s.apiEnabled = on }
}

// WithMetrics sets the metrics provider backing /metrics.
func WithMetrics(m observability.MetricsProvider) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRPCHandler mounts a JSON-RPC endpoint at /mcp.
func WithRPCHandler(h http.Handler) Option {
	return func(s *Server) { s.rpc = h }
}

// WithAuth gates the API behind the validator's keys. A validator with
// no keys admits everything.
func WithAuth(v *auth.KeyValidator) Option {
	return func(s *Server) { s.validator = v }
}

// WithLogger sets the server's logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithInstrumentation attaches HTTP metrics and tracing middleware.
func WithInstrumentation(instr *observability.Instrumentation) Option {
	return func(s *Server) { s.instr = instr }
}

// New composes the HTTP surface around the clock monitor. The route
// table and middleware chain are fixed here; nothing is mounted or
// unmounted while the server runs.
func New(monitor *ntp.Monitor, opts ...Option) *Server {
	s := &Server{
		port:       DefaultPort,
		version:    version.Version,
		apiEnabled: true,
		monitor:    monitor,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.New(nil, nil)
	}
	if s.instr == nil {
		s.instr = &observability.Instrumentation{}
	}
	if s.metrics == nil {
		mp, err := observability.NewMetricsProvider(observability.MetricsConfig{
			ServiceName:    version.Name,
			ServiceVersion: s.version,
		})
		if err != nil {
			s.logger.Error("Failed to build default metrics provider", logging.ErrorField(err))
		} else {
			s.metrics = mp
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	if s.apiEnabled {
		mux.HandleFunc("GET /api/time", s.handleAPITime)
		mux.HandleFunc("GET /api/unix", s.handleAPIUnix)
		mux.HandleFunc("GET /api/nanos", s.handleAPINanos)
		mux.HandleFunc("GET /api/timezones", s.handleAPITimezones)
		mux.HandleFunc("GET /api/time/timezone/{tz...}", s.handleAPITimezoneTime)
		mux.HandleFunc("GET /api/ntp/status", s.handleAPINTPStatus)
		if s.rpc != nil {
			mux.Handle("POST /mcp", s.rpc)
		}
	}
	mux.HandleFunc("/", s.handleNotFound)

	var handler http.Handler = mux
	handler = auth.Middleware(s.validator, s.logger)(handler)
	handler = corsMiddleware(handler)
	handler = s.instr.HTTPMiddleware(handler)
	handler = logging.HTTPMiddleware(s.logger)(handler)
	s.handler = handler

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

// Handler returns the composed handler chain, for tests and for
// embedding under another listener.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens and serves until the context is cancelled or the
// listener fails. Cancellation drains in-flight requests within
// shutdownGrace and returns the context's error.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()

	s.logger.Info("HTTP server listening",
		logging.Int("port", s.port),
		logging.Bool("api_enabled", s.apiEnabled),
		logging.Bool("container_mode", s.containerMode))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return mcperrors.HTTPTransportError("shutdown", err)
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return mcperrors.ConnectionFailed(s.httpSrv.Addr, err)
	}
}

// Stop shuts the listener down out of band, mainly for tests.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// corsMiddleware opens the API to browser callers. Preflight requests
// are answered here and never reach auth or the mux.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if corsPath(r.URL.Path) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func corsPath(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/mcp"
}
