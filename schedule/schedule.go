package schedule

import "time"

// CancelFunc stops a scheduled task. Calling it more than once is safe.
type CancelFunc func()

// Scheduler runs deferred and periodic continuations for a game session.
// Implementations must invoke fn on the goroutine that owns the session.
type Scheduler interface {
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) CancelFunc
	// Every runs fn every d until cancelled.
	Every(d time.Duration, fn func()) CancelFunc
}

// Stop calls cancel if it is non-nil.
func Stop(cancel CancelFunc) {
	if cancel != nil {
		cancel()
	}
}
