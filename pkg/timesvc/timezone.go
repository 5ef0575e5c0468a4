package timesvc

import (
	"time"

	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
)

// Conversion is one timestamp rendered in two zones.
type Conversion struct {
	Original  OriginalInstant  `json:"original"`
	Converted ConvertedInstant `json:"converted"`
}

// OriginalInstant echoes the caller's timestamp and source zone.
type OriginalInstant struct {
	Timestamp int64  `json:"timestamp"`
	Timezone  string `json:"timezone"`
	Formatted string `json:"formatted"`
}

// ConvertedInstant carries the target-zone rendering and its UTC
// offset in seconds.
type ConvertedInstant struct {
	Timestamp int64  `json:"timestamp"`
	Timezone  string `json:"timezone"`
	Formatted string `json:"formatted"`
	Offset    int    `json:"offset"`
}

// LoadLocation resolves an IANA zone name against the platform
// zoneinfo database. "" and "Local" are Go aliases, not IANA names,
// and are rejected.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, mcperrors.InvalidTimezone(name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, mcperrors.InvalidTimezone(name)
	}
	return loc, nil
}

// Convert renders a Unix timestamp in a target zone. fromZone is
// informational only; the timestamp itself is absolute. Timestamps
// whose year falls outside 0-9999 cannot round-trip through the
// standard renderings and are rejected.
func Convert(timestamp int64, fromZone, toZone string) (Conversion, error) {
	if fromZone == "" {
		fromZone = "UTC"
	}

	utc := time.Unix(timestamp, 0).UTC()
	if y := utc.Year(); y < 0 || y > 9999 {
		return Conversion{}, mcperrors.InvalidParameter("timestamp", "Invalid timestamp")
	}

	loc, err := LoadLocation(toZone)
	if err != nil {
		return Conversion{}, err
	}

	converted := utc.In(loc)
	_, offset := converted.Zone()

	return Conversion{
		Original: OriginalInstant{
			Timestamp: timestamp,
			Timezone:  fromZone,
			Formatted: RFC3339(utc),
		},
		Converted: ConvertedInstant{
			Timestamp: converted.Unix(),
			Timezone:  toZone,
			Formatted: RFC3339(converted),
			Offset:    offset,
		},
	}, nil
}

// ListTimezones returns the supported IANA zone names in sorted
// order. The slice is a fresh copy on every call.
func ListTimezones() []string {
	out := make([]string, len(zoneNames))
	copy(out, zoneNames)
	return out
}
