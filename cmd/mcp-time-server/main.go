// The mcp-time-server command serves UTC time, timezone, and
// clock-synchronization queries over the MCP JSON-RPC protocol on
// standard input/output, alongside an HTTP surface for health checks,
// Prometheus metrics, and a REST mirror of the time queries.
//
// All configuration comes from the environment; see pkg/config. In
// container mode (CONTAINER_APP_NAME or KUBERNETES_SERVICE_HOST set,
// or HTTP_API_ONLY=true) the STDIO channel is skipped and the HTTP
// surface is the only interface.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/utcsync/mcp-time-server/pkg/auth"
	"github.com/utcsync/mcp-time-server/pkg/config"
	"github.com/utcsync/mcp-time-server/pkg/health"
	"github.com/utcsync/mcp-time-server/pkg/logging"
	"github.com/utcsync/mcp-time-server/pkg/ntp"
	"github.com/utcsync/mcp-time-server/pkg/observability"
	"github.com/utcsync/mcp-time-server/pkg/server"
	"github.com/utcsync/mcp-time-server/pkg/transport"
	"github.com/utcsync/mcp-time-server/pkg/version"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "mcp-time-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	logger.Info("Starting mcp-utc-time-server",
		logging.String("version", version.Version),
		logging.Bool("container_mode", cfg.ContainerMode()),
		logging.Bool("http_api", cfg.EnableHTTPAPI))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := observability.NewMetricsProvider(observability.MetricsConfig{
		ServiceName:    version.Name,
		ServiceVersion: version.Version,
	})
	if err != nil {
		return fmt.Errorf("metrics setup: %w", err)
	}

	tracer, err := observability.NewTracingProvider(observability.TracingConfig{
		ServiceName:    version.Name,
		ServiceVersion: version.Version,
		ExporterType:   observability.ExporterType(cfg.OTelExporter),
		Endpoint:       cfg.OTelEndpoint,
	})
	if err != nil {
		return fmt.Errorf("tracing setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Tracing shutdown failed", logging.ErrorField(err))
		}
	}()

	instr := &observability.Instrumentation{
		Tracer:  tracer,
		Metrics: metrics,
	}

	monitor := ntp.NewMonitor(cfg.NTP.Unit, cfg.NTP.QueryTimeout, ntp.WithLogger(logger))

	srv := server.New(
		server.WithName(version.Name),
		server.WithVersion(version.Version),
		server.WithLogger(logger),
		server.WithMonitor(monitor),
		server.WithInstrumentation(instr),
	)

	runStdio := !cfg.ContainerMode()
	runHTTP := cfg.EnableHTTPAPI || cfg.ContainerMode()
	if !runStdio && !runHTTP {
		return errors.New("nothing to serve: container mode with ENABLE_HTTP_API=false")
	}

	g, gctx := errgroup.WithContext(ctx)

	if runHTTP {
		validator := auth.FromEnv(logger)
		if validator.HasKeys() {
			logger.Info("API key authentication enabled",
				logging.Int("keys", validator.KeyCount()))
		}

		healthSrv := health.New(monitor,
			health.WithPort(cfg.HealthPort),
			health.WithVersion(version.Version),
			health.WithContainerMode(cfg.ContainerMode()),
			health.WithAPIEnabled(cfg.EnableHTTPAPI),
			health.WithMetrics(metrics),
			health.WithRPCHandler(transport.NewJSONRPCHandler(srv, logger)),
			health.WithAuth(validator),
			health.WithLogger(logger),
			health.WithInstrumentation(instr),
		)
		g.Go(func() error {
			return healthSrv.Start(gctx)
		})
	}

	if runStdio {
		stdio := transport.NewStdioTransport(srv, transport.WithStdioLogger(logger))
		g.Go(func() error {
			defer stop() // EOF on stdin ends the whole process
			return stdio.Start(gctx)
		})
	}

	err = g.Wait()
	logger.Info("Server stopped")
	return err
}

func newLogger(cfg *config.Config) logging.Logger {
	var formatter logging.Formatter
	if cfg.LogFormat == "json" {
		formatter = logging.NewJSONFormatter()
	} else {
		formatter = logging.NewTextFormatter()
	}

	logger := logging.New(os.Stderr, formatter)
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))
	return logger
}
