package utils

import (
	"runtime"
	"testing"
	"time"
)

// GoroutineLeakDetector compares goroutine counts around a test. The
// transport loops spawn watchdog goroutines that must not outlive
// Stop, which is exactly the failure this catches.
type GoroutineLeakDetector struct {
	t              *testing.T
	initialCount   int
	allowedGrowth  int
	stabilizeDelay time.Duration
}

// NewGoroutineLeakDetector creates a detector bound to t.
func NewGoroutineLeakDetector(t *testing.T) *GoroutineLeakDetector {
	return &GoroutineLeakDetector{
		t:              t,
		stabilizeDelay: 200 * time.Millisecond,
	}
}

// SetAllowedGrowth permits n goroutines to remain after Check, for
// machinery with a legitimate background lifetime.
func (d *GoroutineLeakDetector) SetAllowedGrowth(n int) *GoroutineLeakDetector {
	d.allowedGrowth = n
	return d
}

// Start records the baseline count after letting startup settle.
func (d *GoroutineLeakDetector) Start() {
	time.Sleep(d.stabilizeDelay)
	d.initialCount = runtime.NumGoroutine()
}

// Check fails the test when more goroutines remain than Start saw plus
// the allowed growth. Counts are sampled a few times and the lowest
// wins; goroutines legitimately in teardown should not count.
func (d *GoroutineLeakDetector) Check() {
	time.Sleep(d.stabilizeDelay)

	final := runtime.NumGoroutine()
	for i := 0; i < 2; i++ {
		time.Sleep(100 * time.Millisecond)
		if n := runtime.NumGoroutine(); n < final {
			final = n
		}
	}

	leaked := final - d.initialCount
	if leaked > d.allowedGrowth {
		buf := make([]byte, 1<<20)
		n := runtime.Stack(buf, true)
		d.t.Errorf("goroutine leak: started with %d, ended with %d\n%s",
			d.initialCount, final, buf[:n])
	}
}
