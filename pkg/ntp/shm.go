package ntp

// The daemon's shared-memory driver exposes refclock samples under
// well-known SysV keys: "NTP0" (0x4e545030) for unit 0, incrementing
// per unit. The layout and the count double-read protocol are the
// writer's contract; see shm_linux.go.

// shmKeyBase is the SysV IPC key of unit 0.
const shmKeyBase = 0x4e545030

// shmReadAttempts bounds the torn-read retries of a single Read call.
const shmReadAttempts = 3

// leapNotInSync is the leap indicator for an unsynchronized clock.
const leapNotInSync = 3

// SegmentReader reads the daemon's shared-memory time segment.
type SegmentReader interface {
	// Read returns one torn-free sample. Errors are advisory; callers
	// fall back to the peer-query tier.
	Read() (Sample, error)
}

// Sample is one validated reading of the segment: the reference
// (clock) timestamp and the system (receive) timestamp taken when the
// writer captured it.
type Sample struct {
	ClockSec    int64
	ClockNsec   int64
	ReceiveSec  int64
	ReceiveNsec int64
	Leap        int
	Precision   int
	Valid       bool
}

// OffsetMS is the reference-minus-system offset in milliseconds.
// Positive means the system clock is behind the reference.
func (s Sample) OffsetMS() float64 {
	clock := float64(s.ClockSec) + float64(s.ClockNsec)/1e9
	recv := float64(s.ReceiveSec) + float64(s.ReceiveNsec)/1e9
	return (clock - recv) * 1000
}

// nanos picks the nanosecond-resolution field when it agrees with the
// microsecond field; writers predating the NSec fields leave them at
// zero or stale values.
func nanos(usec int32, nsec uint32) int64 {
	if nsec/1000 == uint32(usec) {
		return int64(nsec)
	}
	return int64(usec) * 1000
}
