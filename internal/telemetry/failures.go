package telemetry

import "sync"

// FailureTracker counts consecutive telemetry failures.
type FailureTracker struct {
	mu    sync.Mutex
	max   int
	count int
}

// NewFailureTracker returns a tracker that fires after max failures in a
// row. max == 0 never fires.
func NewFailureTracker(max int) *FailureTracker {
	return &FailureTracker{max: max}
}

// Fail records a failure and reports whether a resubscription is due, in
// which case the counter starts over.
func (f *FailureTracker) Fail() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	if f.max > 0 && f.count >= f.max {
		f.count = 0
		return true
	}
	return false
}

func (f *FailureTracker) Reset() {
	f.mu.Lock()
	f.count = 0
	f.mu.Unlock()
}

func (f *FailureTracker) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}
