package ntp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
)

type fakeSegment struct {
	sample Sample
	err    error
	reads  int
}

func (f *fakeSegment) Read() (Sample, error) {
	f.reads++
	if f.err != nil {
		return Sample{}, f.err
	}
	return f.sample, nil
}

type fakePeers struct {
	peers    PeerList
	peersErr error
	vars     SystemVariables
	varsErr  error
	calls    int
}

func (f *fakePeers) Peers(ctx context.Context) (PeerList, error) {
	f.calls++
	if f.peersErr != nil {
		return PeerList{}, f.peersErr
	}
	return f.peers, nil
}

func (f *fakePeers) Variables(ctx context.Context) (SystemVariables, error) {
	if f.varsErr != nil {
		return SystemVariables{}, f.varsErr
	}
	return f.vars, nil
}

func newTestMonitor(shm SegmentReader, peers PeerQuerier) *Monitor {
	return NewMonitor(0, time.Second,
		WithSegmentReader(shm),
		WithPeerQuerier(peers),
	)
}

func TestQueryStatusPrefersSharedMemory(t *testing.T) {
	seg := &fakeSegment{sample: Sample{
		ClockSec:    1700000000,
		ClockNsec:   500_000_000,
		ReceiveSec:  1700000000,
		ReceiveNsec: 400_000_000,
		Leap:        0,
		Precision:   -20,
		Valid:       true,
	}}
	peers := &fakePeers{}

	st := newTestMonitor(seg, peers).QueryStatus(context.Background())

	assert.Equal(t, SourceSharedMemory, st.Source)
	assert.True(t, st.Available)
	assert.True(t, st.Synced)
	assert.InDelta(t, 100.0, st.OffsetMS, 0.001)
	assert.Equal(t, uint8(1), st.Stratum)
	assert.Equal(t, -20, st.Precision)
	assert.False(t, st.SampledAt.IsZero())
	assert.Zero(t, peers.calls, "peer tier consulted despite a good segment read")
}

func TestQueryStatusSegmentNotSynced(t *testing.T) {
	seg := &fakeSegment{sample: Sample{Leap: leapNotInSync, Valid: true}}

	st := newTestMonitor(seg, &fakePeers{}).QueryStatus(context.Background())

	assert.Equal(t, SourceSharedMemory, st.Source)
	assert.True(t, st.Available)
	assert.False(t, st.Synced)
	assert.Equal(t, stratumUnsynced, st.Stratum)
}

func TestQueryStatusFallsBackOnTornSegment(t *testing.T) {
	seg := &fakeSegment{err: mcperrors.SegmentTorn(shmReadAttempts)}
	peers := &fakePeers{
		peers: PeerList{Lines: []string{"*10.0.0.1  .GPS.  1 u  33  64  377  0.1  +0.05  0.01"}},
		vars: SystemVariables{
			OffsetMS:       0.381,
			Stratum:        2,
			Precision:      -24,
			RootDelay:      1.712,
			RootDispersion: 23.404,
		},
	}

	st := newTestMonitor(seg, peers).QueryStatus(context.Background())

	assert.Equal(t, SourcePeerQuery, st.Source)
	assert.True(t, st.Available)
	assert.True(t, st.Synced)
	assert.Equal(t, uint8(2), st.Stratum)
	assert.InDelta(t, 0.381, st.OffsetMS, 0.0001)
	assert.InDelta(t, 23.404, st.RootDispersion, 0.0001)
}

func TestQueryStatusUnavailableIsDeterministic(t *testing.T) {
	seg := &fakeSegment{err: mcperrors.SegmentUnavailable(errors.New("no segment"))}
	peers := &fakePeers{peersErr: mcperrors.PeerQueryFailed(errors.New("no binary"))}
	m := newTestMonitor(seg, peers)

	for i := 0; i < 3; i++ {
		st := m.QueryStatus(context.Background())
		assert.False(t, st.Available)
		assert.False(t, st.Synced)
		assert.Equal(t, SourceUnavailable, st.Source)
		assert.Equal(t, stratumUnsynced, st.Stratum)
		assert.Equal(t, "unhealthy", st.Health())
	}
}

type hangingPeers struct{}

func (hangingPeers) Peers(ctx context.Context) (PeerList, error) {
	<-ctx.Done()
	return PeerList{}, ctx.Err()
}

func (hangingPeers) Variables(ctx context.Context) (SystemVariables, error) {
	<-ctx.Done()
	return SystemVariables{}, ctx.Err()
}

func TestQueryStatusBoundedByTimeout(t *testing.T) {
	seg := &fakeSegment{err: mcperrors.SegmentUnavailable(errors.New("no segment"))}
	m := NewMonitor(0, 20*time.Millisecond,
		WithSegmentReader(seg),
		WithPeerQuerier(hangingPeers{}),
	)

	start := time.Now()
	st := m.QueryStatus(context.Background())

	require.Less(t, time.Since(start), time.Second)
	assert.Equal(t, SourceUnavailable, st.Source)
}

func TestHealthBuckets(t *testing.T) {
	tests := []struct {
		name   string
		status SyncStatus
		want   string
	}{
		{"tight offset", SyncStatus{Synced: true, OffsetMS: 12.5}, "healthy"},
		{"negative tight offset", SyncStatus{Synced: true, OffsetMS: -99.9}, "healthy"},
		{"drifting", SyncStatus{Synced: true, OffsetMS: 250}, "degraded"},
		{"not synced", SyncStatus{Synced: false, OffsetMS: 1}, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Health())
		})
	}
}
