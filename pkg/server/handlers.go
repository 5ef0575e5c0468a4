package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
	"github.com/utcsync/mcp-time-server/pkg/logging"
	"github.com/utcsync/mcp-time-server/pkg/ntp"
	"github.com/utcsync/mcp-time-server/pkg/observability"
	"github.com/utcsync/mcp-time-server/pkg/timesvc"
)

// Handlers executes the time and clock-status operations behind the
// tools/call family and the legacy time/* methods.
type Handlers struct {
	monitor *ntp.Monitor
	logger  logging.Logger
	instr   *observability.Instrumentation
}

// Result payloads with wire-pinned field names and order.

type nanosResult struct {
	Nanoseconds int64  `json:"nanoseconds"`
	Seconds     int64  `json:"seconds"`
	SubsecNanos uint32 `json:"subsec_nanos"`
}

type formattedResult struct {
	Formatted   string `json:"formatted"`
	Format      string `json:"format"`
	UnixSeconds int64  `json:"unix_seconds"`
	UnixNanos   uint32 `json:"unix_nanos"`
}

type timezonesResult struct {
	Timezones []string `json:"timezones"`
	Count     int      `json:"count"`
}

type ntpUnavailableResult struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
	Synced    bool   `json:"synced"`
}

type ntpStatusResult struct {
	Available      bool    `json:"available"`
	Synced         bool    `json:"synced"`
	OffsetMS       float64 `json:"offset_ms"`
	Stratum        uint8   `json:"stratum"`
	Precision      int     `json:"precision"`
	RootDelay      float64 `json:"root_delay"`
	RootDispersion float64 `json:"root_dispersion"`
	Health         string  `json:"health"`
}

type ntpPeersResult struct {
	Available bool `json:"available"`
	ntp.PeerList
}

type ntpPeersErrorResult struct {
	Available bool   `json:"available"`
	Error     string `json:"error"`
}

func (h *Handlers) getTime(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	h.logger.Debug("Getting current time")
	return timesvc.Now(), nil
}

func (h *Handlers) getTimeFormatted(ctx context.Context, args json.RawMessage) (interface{}, error) {
	format, ok := stringField(paramsObject(args), "format")
	if !ok {
		return nil, mcperrors.MissingParameter("format")
	}

	h.logger.Debug("Getting time with format", logging.String("format", format))
	return h.formattedPayload(format)
}

// formattedPayload is shared with the format_time prompt, which
// renders the same document.
func (h *Handlers) formattedPayload(format string) (interface{}, error) {
	response := timesvc.Now()
	formatted, err := response.FormatCustom(format)
	if err != nil {
		return nil, err
	}

	return formattedResult{
		Formatted:   formatted,
		Format:      format,
		UnixSeconds: response.Unix.Seconds,
		UnixNanos:   response.Unix.Nanos,
	}, nil
}

func (h *Handlers) getTimeWithTimezone(ctx context.Context, args json.RawMessage) (interface{}, error) {
	timezone, ok := stringField(paramsObject(args), "timezone")
	if !ok {
		return nil, mcperrors.MissingParameter("timezone")
	}

	h.logger.Debug("Getting time for timezone", logging.String("timezone", timezone))
	response, err := timesvc.NowInZone(timezone)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (h *Handlers) getUnixTime(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	h.logger.Debug("Getting Unix time")
	return timesvc.NowUnix(), nil
}

func (h *Handlers) getNanos(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	h.logger.Debug("Getting nanoseconds")
	unix := timesvc.NowUnix()
	return nanosResult{
		Nanoseconds: unix.NanosSinceEpoch,
		Seconds:     unix.Seconds,
		SubsecNanos: unix.Nanos,
	}, nil
}

func (h *Handlers) listTimezones(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	h.logger.Debug("Listing timezones")
	timezones := timesvc.ListTimezones()
	return timezonesResult{
		Timezones: timezones,
		Count:     len(timezones),
	}, nil
}

func (h *Handlers) convertTime(ctx context.Context, args json.RawMessage) (interface{}, error) {
	obj := paramsObject(args)

	timestamp, ok := intField(obj, "timestamp")
	if !ok {
		return nil, mcperrors.MissingParameter("timestamp")
	}
	fromZone, _ := stringField(obj, "from_timezone")
	toZone, ok := stringField(obj, "to_timezone")
	if !ok {
		return nil, mcperrors.MissingParameter("to_timezone")
	}
	if fromZone == "" {
		fromZone = "UTC"
	}

	h.logger.Debug("Converting time",
		logging.String("from", fromZone),
		logging.String("to", toZone))

	conversion, err := timesvc.Convert(timestamp, fromZone, toZone)
	if err != nil {
		return nil, err
	}
	return conversion, nil
}

func (h *Handlers) getNTPStatus(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	h.logger.Debug("Getting NTP status")

	status := h.monitor.QueryStatus(ctx)
	h.recordSyncProbe(ctx, status)

	// An unsynchronized daemon is reported inside the payload, never
	// as a request failure.
	if !status.Synced {
		return ntpUnavailableResult{
			Available: false,
			Message:   "NTP not available or not synchronized",
			Synced:    false,
		}, nil
	}

	return ntpStatusResult{
		Available:      true,
		Synced:         status.Synced,
		OffsetMS:       status.OffsetMS,
		Stratum:        status.Stratum,
		Precision:      status.Precision,
		RootDelay:      status.RootDelay,
		RootDispersion: status.RootDispersion,
		Health:         status.Health(),
	}, nil
}

func (h *Handlers) getNTPPeers(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	h.logger.Debug("Getting NTP peers")

	peers, err := h.monitor.Peers(ctx)
	if err != nil {
		return ntpPeersErrorResult{
			Available: false,
			Error:     "NTP daemon not available or ntpq command failed",
		}, nil
	}

	return ntpPeersResult{
		Available: true,
		PeerList:  peers,
	}, nil
}

func (h *Handlers) recordSyncProbe(ctx context.Context, status ntp.SyncStatus) {
	if h.instr == nil || h.instr.Metrics == nil {
		return
	}
	h.instr.Metrics.RecordSyncProbe(ctx, string(status.Source), status.Synced, status.OffsetMS, status.Stratum)
}

// paramsObject decodes a params payload into a generic object. Null,
// absent, and non-object payloads all come back nil, which the field
// lookups below treat as missing.
func paramsObject(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil
	}
	return obj
}

// stringField extracts a string-typed field. Any other type counts as
// missing rather than being coerced.
func stringField(obj map[string]interface{}, key string) (string, bool) {
	v, ok := obj[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// intField extracts an integral number field. Fractional values count
// as missing rather than truncating.
func intField(obj map[string]interface{}, key string) (int64, bool) {
	v, ok := obj[key]
	if !ok {
		return 0, false
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	n, err := num.Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

// prettyJSON renders a payload the way it appears inside text content:
// two-space indentation, stable field order, no HTML escaping.
func prettyJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
