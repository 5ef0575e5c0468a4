package timesvc

import "time"

// UnixTime is an instant expressed as seconds plus sub-second
// nanoseconds since the Unix epoch.
type UnixTime struct {
	// Seconds since 1970-01-01T00:00:00Z.
	Seconds int64 `json:"seconds"`
	// Nanoseconds within the current second (0-999999999).
	Nanos uint32 `json:"nanos"`
	// Combined nanoseconds since the epoch. An int64 holds full
	// precision through year 2262.
	NanosSinceEpoch int64 `json:"nanos_since_epoch"`
}

// NowUnix captures the current instant.
func NowUnix() UnixTime {
	return UnixTimeAt(time.Now())
}

// UnixTimeAt converts t to its epoch representation.
func UnixTimeAt(t time.Time) UnixTime {
	return UnixTime{
		Seconds:         t.Unix(),
		Nanos:           uint32(t.Nanosecond()),
		NanosSinceEpoch: t.UnixNano(),
	}
}

// Microseconds returns the instant truncated to whole microseconds
// since the epoch.
func (u UnixTime) Microseconds() int64 {
	return u.Seconds*1_000_000 + int64(u.Nanos)/1_000
}

// Milliseconds returns the instant truncated to whole milliseconds
// since the epoch.
func (u UnixTime) Milliseconds() int64 {
	return u.Seconds*1_000 + int64(u.Nanos)/1_000_000
}

// Time converts back to a time.Time in UTC.
func (u UnixTime) Time() time.Time {
	return time.Unix(u.Seconds, int64(u.Nanos)).UTC()
}
