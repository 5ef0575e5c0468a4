package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/utcsync/mcp-time-server/pkg/logging"
	"github.com/utcsync/mcp-time-server/pkg/ntp"
	"github.com/utcsync/mcp-time-server/pkg/timesvc"
	"github.com/utcsync/mcp-time-server/pkg/version"
)

// healthDocument is the /health body. Status is always "healthy" when
// the process can answer at all; clock-sync trouble shows in the ntp
// field, not in the status.
type healthDocument struct {
	Status    string      `json:"status"`
	Version   string      `json:"version"`
	Service   string      `json:"service"`
	Timestamp string      `json:"timestamp"`
	NTP       interface{} `json:"ntp"`
}

// syncSummary is the abbreviated sync state embedded in /health.
type syncSummary struct {
	Synced   bool    `json:"synced"`
	OffsetMS float64 `json:"offset_ms"`
	Stratum  uint8   `json:"stratum"`
}

// ntpStatusDocument is the /api/ntp/status body: the full sync sample
// plus the operator-facing health bucket and the container flag.
type ntpStatusDocument struct {
	ntp.SyncStatus
	Health        string `json:"health"`
	ContainerMode bool   `json:"container_mode"`
}

type nanosDocument struct {
	Nanoseconds int64  `json:"nanoseconds"`
	Seconds     int64  `json:"seconds"`
	SubsecNanos uint32 `json:"subsec_nanos"`
}

type timezonesDocument struct {
	Timezones []string `json:"timezones"`
	Count     int      `json:"count"`
}

type errorDocument struct {
	Error string `json:"error"`
}

type notFoundDocument struct {
	Error              string   `json:"error"`
	AvailableEndpoints []string `json:"available_endpoints"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.monitor.QueryStatus(r.Context())

	var ntpField interface{}
	if st.Available {
		ntpField = syncSummary{
			Synced:   st.Synced,
			OffsetMS: st.OffsetMS,
			Stratum:  st.Stratum,
		}
	} else {
		ntpField = map[string]bool{"available": false}
	}

	s.writeJSON(w, http.StatusOK, healthDocument{
		Status:    "healthy",
		Version:   s.version,
		Service:   version.Name,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		NTP:       ntpField,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		return
	}
	s.metrics.Handler().ServeHTTP(w, r)
}

func (s *Server) handleAPITime(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, timesvc.Now())
}

func (s *Server) handleAPIUnix(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, timesvc.NowUnix())
}

func (s *Server) handleAPINanos(w http.ResponseWriter, r *http.Request) {
	unix := timesvc.NowUnix()
	s.writeJSON(w, http.StatusOK, nanosDocument{
		Nanoseconds: unix.NanosSinceEpoch,
		Seconds:     unix.Seconds,
		SubsecNanos: unix.Nanos,
	})
}

func (s *Server) handleAPITimezones(w http.ResponseWriter, r *http.Request) {
	timezones := timesvc.ListTimezones()
	s.writeJSON(w, http.StatusOK, timezonesDocument{
		Timezones: timezones,
		Count:     len(timezones),
	})
}

func (s *Server) handleAPITimezoneTime(w http.ResponseWriter, r *http.Request) {
	tz := r.PathValue("tz")
	response, err := timesvc.NowInZone(tz)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorDocument{
			Error: fmt.Sprintf("Invalid timezone: %s", tz),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleAPINTPStatus(w http.ResponseWriter, r *http.Request) {
	st := s.monitor.QueryStatus(r.Context())
	s.writeJSON(w, http.StatusOK, ntpStatusDocument{
		SyncStatus:    st,
		Health:        st.Health(),
		ContainerMode: s.containerMode,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusNotFound, notFoundDocument{
		Error:              "Not found",
		AvailableEndpoints: s.availableEndpoints(),
	})
}

func (s *Server) availableEndpoints() []string {
	endpoints := []string{"/health", "/metrics"}
	if s.apiEnabled {
		endpoints = append(endpoints,
			"/api/time",
			"/api/unix",
			"/api/nanos",
			"/api/timezones",
			"/api/time/timezone/{timezone}",
			"/api/ntp/status",
		)
		if s.rpc != nil {
			endpoints = append(endpoints, "/mcp")
		}
	}
	return endpoints
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Error("Failed to encode response body", logging.ErrorField(err))
	}
}
