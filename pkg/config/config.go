// Package config loads the server configuration from the environment.
// The surface is plain strings and booleans consumed once at startup;
// nothing here is re-read while the server runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full environment-supplied configuration
type Config struct {
	// HTTP surface
	EnableHTTPAPI bool `env:"ENABLE_HTTP_API" envDefault:"true"`
	HTTPAPIOnly   bool `env:"HTTP_API_ONLY" envDefault:"false"`
	HealthPort    int  `env:"HEALTH_PORT" envDefault:"3000"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Tracing
	OTelExporter string `env:"OTEL_EXPORTER" envDefault:"noop"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`

	// Container detection inputs
	ContainerAppName      string `env:"CONTAINER_APP_NAME"`
	KubernetesServiceHost string `env:"KUBERNETES_SERVICE_HOST"`

	NTP NTPConfig
}

// NTPConfig describes the local time daemon setup. The daemon itself
// is managed externally; these values drive the status subsystem and
// are reported through /api/ntp/status.
type NTPConfig struct {
	Servers      []string      `env:"NTP_SERVERS" envSeparator:"," envDefault:"time.cloudflare.com,time.google.com"`
	Unit         int           `env:"NTP_UNIT" envDefault:"0"`
	QueryTimeout time.Duration `env:"NTP_QUERY_TIMEOUT" envDefault:"2s"`

	// The daemon config scripts treat exactly "yes" as enabled
	EnablePPS string `env:"ENABLE_PPS" envDefault:"no"`
	PPSDevice string `env:"PPS_DEVICE" envDefault:"/dev/pps0"`
	PPSGPIO   int    `env:"PPS_GPIO" envDefault:"18"`

	EnableGPS string `env:"ENABLE_GPS" envDefault:"no"`
	GPSDevice string `env:"GPS_DEVICE" envDefault:"/dev/ttyAMA0"`
	GPSBaud   int    `env:"GPS_BAUD" envDefault:"9600"`

	LocalStratum uint8  `env:"LOCAL_STRATUM" envDefault:"10"`
	DriftFile    string `env:"NTP_DRIFT_FILE" envDefault:"/var/lib/ntp/ntp.drift"`
	StatsDir     string `env:"NTP_STATS_DIR" envDefault:"/var/log/ntpstats"`
}

// Load parses the environment into a validated Config
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	// ENABLE_HEALTH_SERVER predates ENABLE_HTTP_API; honor it when the
	// newer name is unset.
	if os.Getenv("ENABLE_HTTP_API") == "" {
		if legacy, err := strconv.ParseBool(os.Getenv("ENABLE_HEALTH_SERVER")); err == nil {
			cfg.EnableHTTPAPI = legacy
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HealthPort < 1 || c.HealthPort > 65535 {
		return fmt.Errorf("HEALTH_PORT %d out of range", c.HealthPort)
	}
	if c.NTP.QueryTimeout <= 0 {
		return fmt.Errorf("NTP_QUERY_TIMEOUT must be positive, got %s", c.NTP.QueryTimeout)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ContainerMode reports whether the server should assume it runs in a
// container/orchestrator: STDIO is detached there, so the HTTP surface
// becomes the primary interface.
func (c *Config) ContainerMode() bool {
	return c.HTTPAPIOnly || c.ContainerAppName != "" || c.KubernetesServiceHost != ""
}

// PPSEnabled reports whether a PPS hardware source is configured
func (c *NTPConfig) PPSEnabled() bool {
	return c.EnablePPS == "yes"
}

// GPSEnabled reports whether a GPS reference is configured
func (c *NTPConfig) GPSEnabled() bool {
	return c.EnableGPS == "yes"
}
