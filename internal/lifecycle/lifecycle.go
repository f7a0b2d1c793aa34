// Package lifecycle records when the process started draining for shutdown.
package lifecycle

import (
	"sync/atomic"
	"time"
)

var drainingSince atomic.Pointer[time.Time]

// SetShuttingDown marks the process as draining (true) or serving (false).
// Health reports shutting-down with a 503 while the flag is set.
func SetShuttingDown(v bool) {
	if !v {
		drainingSince.Store(nil)
		return
	}
	now := time.Now()
	drainingSince.CompareAndSwap(nil, &now)
}

// IsShuttingDown reports whether SetShuttingDown(true) has been called.
func IsShuttingDown() bool {
	return drainingSince.Load() != nil
}

// ShutdownStarted returns when draining began, if it has.
func ShutdownStarted() (time.Time, bool) {
	if t := drainingSince.Load(); t != nil {
		return *t, true
	}
	return time.Time{}, false
}
