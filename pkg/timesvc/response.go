// Package timesvc produces the time payloads the protocol exposes. It
// captures epoch instants at nanosecond precision and handles strftime
// rendering and IANA timezone conversion. Everything is pure; callers
// decide how results reach the wire.
package timesvc

import (
	"strconv"
	"time"
)

// EnhancedTimeResponse is the full answer to a current-time query:
// epoch values at several precisions, standard renderings, broken-out
// calendar components, and a handful of classic Unix formats.
type EnhancedTimeResponse struct {
	Unix UnixTime `json:"unix"`

	ISO8601 string `json:"iso8601"`
	RFC3339 string `json:"rfc3339"`
	RFC2822 string `json:"rfc2822"`
	CTime   string `json:"ctime"`

	NanosSinceEpoch int64 `json:"nanos_since_epoch"`
	Seconds         int64 `json:"seconds"`
	Microseconds    int64 `json:"microseconds"`
	Milliseconds    int64 `json:"milliseconds"`

	Year       int `json:"year"`
	Month      int `json:"month"`
	Day        int `json:"day"`
	Hour       int `json:"hour"`
	Minute     int `json:"minute"`
	Second     int `json:"second"`
	Nanosecond int `json:"nanosecond"`

	Timezone string `json:"timezone"`
	Offset   int    `json:"offset"`

	Weekday    string `json:"weekday"`
	WeekOfYear int    `json:"week_of_year"`
	DayOfYear  int    `json:"day_of_year"`

	CustomFormats map[string]string `json:"custom_formats"`
}

// Now captures the current instant in UTC.
func Now() EnhancedTimeResponse {
	return at(time.Now())
}

// NowInZone captures the current instant with the standard renderings
// in the named zone. Calendar components, ctime, and custom formats
// stay in UTC; timezone, offset, iso8601, rfc3339, and rfc2822 carry
// the zone.
func NowInZone(name string) (EnhancedTimeResponse, error) {
	loc, err := LoadLocation(name)
	if err != nil {
		return EnhancedTimeResponse{}, err
	}

	r := at(time.Now())
	local := r.Unix.Time().In(loc)
	_, offset := local.Zone()

	r.Timezone = name
	r.Offset = offset
	r.ISO8601 = ISO8601(local)
	r.RFC3339 = RFC3339(local)
	r.RFC2822 = RFC2822(local)
	return r, nil
}

// FormatCustom renders the captured instant with a caller-supplied
// strftime pattern.
func (r EnhancedTimeResponse) FormatCustom(pattern string) (string, error) {
	return Format(r.Unix.Time(), pattern)
}

func at(t time.Time) EnhancedTimeResponse {
	t = t.UTC()
	unix := UnixTimeAt(t)

	// The patterns here are fixed constants; a failure would mean the
	// constants above regressed, so the value degrades to an empty
	// string rather than failing the whole response.
	unixDate, _ := Format(t, UnixDateFormat)
	syslog, _ := Format(t, SyslogFormat)
	apacheLog, _ := Format(t, ApacheLogFormat)

	weekStr, _ := Format(t, "%U")
	week, _ := strconv.Atoi(weekStr)

	return EnhancedTimeResponse{
		Unix: unix,

		ISO8601: ISO8601(t),
		RFC3339: RFC3339(t),
		RFC2822: RFC2822(t),
		CTime:   CTime(t),

		NanosSinceEpoch: unix.NanosSinceEpoch,
		Seconds:         unix.Seconds,
		Microseconds:    unix.Microseconds(),
		Milliseconds:    unix.Milliseconds(),

		Year:       t.Year(),
		Month:      int(t.Month()),
		Day:        t.Day(),
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		Nanosecond: t.Nanosecond(),

		Timezone: "UTC",
		Offset:   0,

		Weekday:    t.Weekday().String(),
		WeekOfYear: week,
		DayOfYear:  t.YearDay(),

		CustomFormats: map[string]string{
			"unix_date":      unixDate,
			"syslog":         syslog,
			"apache_log":     apacheLog,
			"unix_timestamp": strconv.FormatInt(unix.Seconds, 10),
		},
	}
}
