package timesvc

import (
	"time"

	"github.com/lestrrat-go/strftime"

	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
)

// Classic Unix strftime patterns surfaced in the custom_formats map.
const (
	// UnixDateFormat matches date(1) output, e.g. "Sat Mar  9 14:05:06 UTC 2024".
	UnixDateFormat = "%a %b %e %H:%M:%S %Z %Y"
	// SyslogFormat is the RFC 3164 header timestamp.
	SyslogFormat = "%b %d %H:%M:%S"
	// ApacheLogFormat is the common-log-format timestamp.
	ApacheLogFormat = "%d/%b/%Y:%H:%M:%S %z"
	// UnixTimestampFormat renders whole seconds since the epoch.
	UnixTimestampFormat = "%s"
)

// %s (epoch seconds) is a GNU extension, not part of POSIX strftime.
var strftimeExtensions = []strftime.Option{
	strftime.WithUnixSeconds('s'),
}

// Format renders t according to a C strftime pattern. A pattern with
// an unknown conversion specifier fails as a whole.
func Format(t time.Time, pattern string) (string, error) {
	s, err := strftime.Format(pattern, t, strftimeExtensions...)
	if err != nil {
		return "", mcperrors.TimeError(err)
	}
	return s, nil
}

// ISO8601 renders t with a fixed nine fractional digits and a "Z"
// suffix when the offset is zero.
func ISO8601(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000000Z07:00")
}

// RFC3339 renders t with adaptive sub-second precision: no fraction,
// milliseconds, microseconds, or nanoseconds, whichever is the
// smallest group that loses nothing. The offset is always numeric,
// "+00:00" for UTC.
func RFC3339(t time.Time) string {
	switch ns := t.Nanosecond(); {
	case ns == 0:
		return t.Format("2006-01-02T15:04:05-07:00")
	case ns%1_000_000 == 0:
		return t.Format("2006-01-02T15:04:05.000-07:00")
	case ns%1_000 == 0:
		return t.Format("2006-01-02T15:04:05.000000-07:00")
	default:
		return t.Format("2006-01-02T15:04:05.000000000-07:00")
	}
}

// RFC2822 renders t in the email date format, e.g.
// "Sat, 09 Mar 2024 14:05:06 +0000".
func RFC2822(t time.Time) string {
	return t.Format(time.RFC1123Z)
}

// CTime renders t the way ctime(3) does, e.g. "Sat Mar  9 14:05:06 2024".
func CTime(t time.Time) string {
	return t.Format(time.ANSIC)
}
