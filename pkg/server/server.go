package server

import (
	"time"

	"github.com/utcsync/mcp-time-server/pkg/logging"
	"github.com/utcsync/mcp-time-server/pkg/ntp"
	"github.com/utcsync/mcp-time-server/pkg/observability"
)

// Identity reported in the initialize handshake unless overridden.
const (
	DefaultName    = "mcp-utc-time-server"
	DefaultVersion = "1.0.0"
)

// defaultStatusTimeout bounds clock-status probes issued on behalf of
// protocol requests.
const defaultStatusTimeout = 2 * time.Second

// Server routes JSON-RPC messages to the tool, prompt, and legacy
// handlers. It holds no per-session state: every message is handled
// against the same immutable registry, so one Server instance can
// serve the STDIO loop and the HTTP endpoint concurrently.
type Server struct {
	name    string
	version string

	registry *Registry
	handlers *Handlers
	monitor  *ntp.Monitor
	logger   logging.Logger
	instr    *observability.Instrumentation
}

// Option configures a Server.
type Option func(*Server)

// WithName overrides the server name reported to clients.
func WithName(name string) Option {
	return func(s *Server) { s.name = name }
}

// WithVersion overrides the version reported to clients.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMonitor sets the clock-status monitor backing the NTP tools.
func WithMonitor(monitor *ntp.Monitor) Option {
	return func(s *Server) { s.monitor = monitor }
}

// WithInstrumentation attaches metrics and tracing.
func WithInstrumentation(instr *observability.Instrumentation) Option {
	return func(s *Server) { s.instr = instr }
}

// New builds a server with its full tool and prompt set registered.
// The registry is frozen before New returns; nothing registers or
// unregisters afterward.
func New(opts ...Option) *Server {
	s := &Server{
		name:    DefaultName,
		version: DefaultVersion,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.New(nil, nil)
	}
	if s.monitor == nil {
		s.monitor = ntp.NewMonitor(0, defaultStatusTimeout, ntp.WithLogger(s.logger))
	}
	if s.instr == nil {
		s.instr = &observability.Instrumentation{}
	}

	s.handlers = &Handlers{
		monitor: s.monitor,
		logger:  s.logger,
		instr:   s.instr,
	}
	s.registry = NewRegistry(s.handlers)
	return s
}

// Name returns the server name reported to clients.
func (s *Server) Name() string { return s.name }

// Version returns the version reported to clients.
func (s *Server) Version() string { return s.version }

// Registry exposes the frozen tool and prompt registry.
func (s *Server) Registry() *Registry { return s.registry }

// Monitor exposes the clock-status monitor, shared with the HTTP
// surface so both report from the same probes.
func (s *Server) Monitor() *ntp.Monitor { return s.monitor }
