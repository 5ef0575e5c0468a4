//go:build linux

package ntp

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
)

// shmTime mirrors the daemon's segment layout for a 64-bit time_t
// writer. The explicit padding keeps the offsets fixed regardless of
// the host's int64 alignment. This layout is the writer's contract;
// do not reorder or resize fields.
type shmTime struct {
	Mode                 int32
	Count                int32
	ClockTimeStampSec    int64
	ClockTimeStampUSec   int32
	_                    int32
	ReceiveTimeStampSec  int64
	ReceiveTimeStampUSec int32
	Leap                 int32
	Precision            int32
	Nsamples             int32
	Valid                int32
	ClockTimeStampNSec   uint32
	ReceiveTimeStampNSec uint32
	Dummy                [8]int32
}

type sysvSegmentReader struct {
	key int
}

func newSegmentReader(unit int) SegmentReader {
	return &sysvSegmentReader{key: shmKeyBase + unit}
}

// Read attaches the segment read-only, takes a torn-free snapshot, and
// detaches. The segment stays mapped only for the duration of the
// call; the writer owns its lifecycle.
func (r *sysvSegmentReader) Read() (Sample, error) {
	id, err := unix.SysvShmGet(r.key, 0, 0)
	if err != nil {
		return Sample{}, mcperrors.SegmentUnavailable(err)
	}

	mem, err := unix.SysvShmAttach(id, 0, unix.SHM_RDONLY)
	if err != nil {
		return Sample{}, mcperrors.SegmentUnavailable(err)
	}
	defer unix.SysvShmDetach(mem)

	// A segment smaller than the struct comes from a 32-bit writer,
	// whose layout this reader does not speak.
	if len(mem) < int(unsafe.Sizeof(shmTime{})) {
		return Sample{}, mcperrors.SegmentUnavailable(
			fmt.Errorf("segment is %d bytes, need %d", len(mem), unsafe.Sizeof(shmTime{})))
	}

	return readSample((*shmTime)(unsafe.Pointer(&mem[0])))
}

// readSample applies the count double-read protocol: the writer bumps
// Count before and after updating the payload, so an odd value or a
// mismatch across the copy marks a torn record.
func readSample(seg *shmTime) (Sample, error) {
	for attempt := 0; attempt < shmReadAttempts; attempt++ {
		before := atomic.LoadInt32(&seg.Count)
		snap := *seg
		after := atomic.LoadInt32(&seg.Count)

		if before != after || before&1 != 0 {
			continue
		}
		return sampleFromSegment(&snap), nil
	}
	return Sample{}, mcperrors.SegmentTorn(shmReadAttempts)
}

func sampleFromSegment(seg *shmTime) Sample {
	return Sample{
		ClockSec:    seg.ClockTimeStampSec,
		ClockNsec:   nanos(seg.ClockTimeStampUSec, seg.ClockTimeStampNSec),
		ReceiveSec:  seg.ReceiveTimeStampSec,
		ReceiveNsec: nanos(seg.ReceiveTimeStampUSec, seg.ReceiveTimeStampNSec),
		Leap:        int(seg.Leap),
		Precision:   int(seg.Precision),
		Valid:       seg.Valid != 0,
	}
}
