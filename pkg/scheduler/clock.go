package scheduler

import "time"

// Clock abstracts timer creation so the debounce machinery can be driven by
// a mock clock in tests instead of real timers.
type Clock interface {
	Now() time.Time

	// AfterFunc arranges for fn to run after d and returns a timer that can
	// be stopped or reset.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is the controllable handle returned by Clock.AfterFunc.
type Timer interface {
	// Stop cancels the timer. Reports whether it was still pending.
	Stop() bool

	// Reset re-arms the timer to fire after d from now.
	Reset(d time.Duration) bool
}

// realClock is the production clock backed by the time package.
type realClock struct{}

// NewRealClock returns a Clock backed by real timers.
func NewRealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(d, fn)}
}

type realTimer struct{ t *time.Timer }

func (rt realTimer) Stop() bool                  { return rt.t.Stop() }
func (rt realTimer) Reset(d time.Duration) bool  { return rt.t.Reset(d) }
