//go:build !linux

package ntp

import (
	"errors"

	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
)

// SysV shared memory is wired up on Linux only; elsewhere the segment
// tier reports unavailable and every query falls through to ntpq.
func newSegmentReader(int) SegmentReader {
	return unsupportedSegmentReader{}
}

type unsupportedSegmentReader struct{}

func (unsupportedSegmentReader) Read() (Sample, error) {
	return Sample{}, mcperrors.SegmentUnavailable(errors.New("shared-memory driver requires linux"))
}
