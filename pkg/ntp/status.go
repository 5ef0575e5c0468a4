// Package ntp reports the synchronization state of the local time
// daemon. It never adjusts the clock; everything here is read-only
// observation through two tiers: the daemon's shared-memory segment
// and, failing that, the ntpq control utility.
package ntp

import (
	"context"
	"math"
	"time"

	"github.com/utcsync/mcp-time-server/pkg/logging"
)

// Source identifies which tier produced a SyncStatus.
type Source string

const (
	SourceSharedMemory Source = "SharedMemory"
	SourcePeerQuery    Source = "PeerQuery"
	SourceUnavailable  Source = "Unavailable"
)

// stratumUnsynced is the protocol value for "not synchronized".
const stratumUnsynced uint8 = 16

// SyncStatus is one sample of daemon state. It is computed fresh on
// every query; a cached value would misrepresent hardware health.
type SyncStatus struct {
	Available      bool      `json:"available"`
	Synced         bool      `json:"synced"`
	OffsetMS       float64   `json:"offset_ms"`
	Stratum        uint8     `json:"stratum"`
	Precision      int       `json:"precision"`
	RootDelay      float64   `json:"root_delay"`
	RootDispersion float64   `json:"root_dispersion"`
	Source         Source    `json:"source"`
	SampledAt      time.Time `json:"sampled_at"`
}

// Health buckets the status for operators: "healthy" within 100ms of
// the reference, "degraded" when synced but drifting, "unhealthy"
// otherwise.
func (s SyncStatus) Health() string {
	switch {
	case s.Synced && math.Abs(s.OffsetMS) < 100:
		return "healthy"
	case s.Synced:
		return "degraded"
	default:
		return "unhealthy"
	}
}

// Monitor answers status queries against a configured daemon unit.
type Monitor struct {
	shm     SegmentReader
	peers   PeerQuerier
	timeout time.Duration
	logger  logging.Logger
}

// Option customizes a Monitor, mainly so tests can substitute
// deterministic tiers.
type Option func(*Monitor)

// WithSegmentReader replaces the shared-memory tier.
func WithSegmentReader(r SegmentReader) Option {
	return func(m *Monitor) { m.shm = r }
}

// WithPeerQuerier replaces the control-utility tier.
func WithPeerQuerier(q PeerQuerier) Option {
	return func(m *Monitor) { m.peers = q }
}

// WithLogger sets the monitor's logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// NewMonitor builds a monitor for the given daemon unit. timeout
// bounds every external query issued by QueryStatus and Peers.
func NewMonitor(unit int, timeout time.Duration, opts ...Option) *Monitor {
	m := &Monitor{
		shm:     newSegmentReader(unit),
		peers:   NewNtpqQuerier(),
		timeout: timeout,
		logger:  logging.New(nil, nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// QueryStatus samples the daemon, shared memory first, peer query
// second. It never fails: when both tiers are unusable the result is
// `{available:false, source:Unavailable}`. The call returns within the
// configured timeout.
func (m *Monitor) QueryStatus(ctx context.Context) SyncStatus {
	sampledAt := time.Now().UTC()

	sample, shmErr := m.shm.Read()
	if shmErr == nil {
		st := statusFromSample(sample)
		st.SampledAt = sampledAt
		return st
	}
	m.logger.Debug("shared-memory tier unusable, trying peer query",
		logging.ErrorField(shmErr))

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	st, err := m.peerStatus(ctx)
	if err != nil {
		m.logger.Debug("peer query tier unusable", logging.ErrorField(err))
		return SyncStatus{
			Stratum:   stratumUnsynced,
			Source:    SourceUnavailable,
			SampledAt: sampledAt,
		}
	}
	st.SampledAt = sampledAt
	return st
}

// Peers returns the raw peer billboard for diagnostic surfaces.
func (m *Monitor) Peers(ctx context.Context) (PeerList, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.peers.Peers(ctx)
}

func (m *Monitor) peerStatus(ctx context.Context) (SyncStatus, error) {
	peers, err := m.peers.Peers(ctx)
	if err != nil {
		return SyncStatus{}, err
	}
	vars, err := m.peers.Variables(ctx)
	if err != nil {
		return SyncStatus{}, err
	}
	return SyncStatus{
		Available:      true,
		Synced:         peers.Synced(),
		OffsetMS:       vars.OffsetMS,
		Stratum:        vars.Stratum,
		Precision:      vars.Precision,
		RootDelay:      vars.RootDelay,
		RootDispersion: vars.RootDispersion,
		Source:         SourcePeerQuery,
	}, nil
}

func statusFromSample(s Sample) SyncStatus {
	synced := s.Valid && s.Leap != leapNotInSync
	st := SyncStatus{
		Available: true,
		Synced:    synced,
		OffsetMS:  s.OffsetMS(),
		Stratum:   stratumUnsynced,
		Precision: s.Precision,
		Source:    SourceSharedMemory,
	}
	if synced {
		// A refclock-fed daemon serves at stratum 1.
		st.Stratum = 1
	}
	return st
}
