package schedule

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Manual is a Scheduler driven by a clockwork.FakeClock. Nothing fires until
// Advance is called; due tasks then run in time order on the caller's
// goroutine, with the fake clock stepped to each task's deadline first.
// It is not safe for concurrent use.
type Manual struct {
	clock *clockwork.FakeClock
	start time.Time
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	at        time.Time
	every     time.Duration
	seq       uint64
	fn        func()
	cancelled bool
}

// Ensure Manual implements Scheduler.
var _ Scheduler = (*Manual)(nil)

// NewManual returns a Manual scheduler on a fresh fake clock.
func NewManual() *Manual {
	return NewManualWithClock(clockwork.NewFakeClock())
}

// NewManualWithClock returns a Manual scheduler reading time from clock.
func NewManualWithClock(clock *clockwork.FakeClock) *Manual {
	return &Manual{clock: clock, start: clock.Now()}
}

// AfterFunc schedules fn to run once, d after the clock's current time.
func (m *Manual) AfterFunc(d time.Duration, fn func()) CancelFunc {
	return m.add(d, 0, fn)
}

// Every schedules fn to run every d. A non-positive period is rejected and
// the returned cancel is a no-op.
func (m *Manual) Every(d time.Duration, fn func()) CancelFunc {
	if d <= 0 {
		return func() {}
	}
	return m.add(d, d, fn)
}

func (m *Manual) add(d, every time.Duration, fn func()) CancelFunc {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTask{at: m.clock.Now().Add(d), every: every, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return func() { t.cancelled = true }
}

// Clock returns the fake clock backing the scheduler.
func (m *Manual) Clock() *clockwork.FakeClock {
	return m.clock
}

// Elapsed returns the time the clock has moved since the scheduler was created.
func (m *Manual) Elapsed() time.Duration {
	return m.clock.Since(m.start)
}

// Pending returns the number of live tasks, periodic ones included.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running every task that falls due.
// Tasks scheduled by a running task are eligible in the same call.
func (m *Manual) Advance(d time.Duration) {
	target := m.clock.Now().Add(d)
	for {
		t := m.next(target)
		if t == nil {
			break
		}
		m.stepTo(t.at)
		if t.every > 0 {
			m.seq++
			t.at = t.at.Add(t.every)
			t.seq = m.seq
		} else {
			t.cancelled = true
		}
		t.fn()
	}
	m.stepTo(target)
	m.compact()
}

func (m *Manual) stepTo(at time.Time) {
	if d := at.Sub(m.clock.Now()); d > 0 {
		m.clock.Advance(d)
	}
}

// next returns the earliest live task due at or before target.
func (m *Manual) next(target time.Time) *manualTask {
	var best *manualTask
	for _, t := range m.tasks {
		if t.cancelled || t.at.After(target) {
			continue
		}
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *Manual) compact() {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	m.tasks = live
}
