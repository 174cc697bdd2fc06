package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mkarras/pinlabel/pkg/view"
)

// =============================================================================
// Mock Clock
// =============================================================================

// mockClock is a manual clock: timers fire only when Advance walks time
// forward past their deadline. This makes debounce behavior deterministic.
type mockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Unix(0, 0)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTimer{clock: c, fn: fn, deadline: c.now.Add(d), active: true}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward, firing due timers in deadline order.
// Timers re-armed while firing are honored within the same advance.
func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		var next *mockTimer
		for _, t := range c.timers {
			if !t.active || t.deadline.After(target) {
				continue
			}
			if next == nil || t.deadline.Before(next.deadline) {
				next = t
			}
		}
		if next == nil {
			break
		}
		c.now = next.deadline
		next.active = false
		fn := next.fn
		c.mu.Unlock()
		fn()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

type mockTimer struct {
	clock    *mockClock
	fn       func()
	deadline time.Time
	active   bool
}

func (t *mockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.active
	t.active = false
	return was
}

func (t *mockTimer) Reset(d time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.active
	t.deadline = t.clock.now.Add(d)
	t.active = true
	return was
}

// counter counts pass executions.
type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) pass(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// =============================================================================
// Tests
// =============================================================================

func TestSchedulerCoalescesEvents(t *testing.T) {
	clock := newMockClock()
	var passes counter
	s := New(passes.pass, Options{ThrottleDelay: 250 * time.Millisecond, Clock: clock})

	// Ten events inside the debounce window.
	for i := 0; i < 10; i++ {
		s.Notify()
		clock.Advance(10 * time.Millisecond)
	}

	// The window restarts from the last event: 240ms later nothing has run.
	clock.Advance(230 * time.Millisecond)
	if got := passes.count(); got != 0 {
		t.Fatalf("pass ran %d times before the debounce window elapsed", got)
	}

	clock.Advance(20 * time.Millisecond)
	if got := passes.count(); got != 1 {
		t.Errorf("pass ran %d times, want exactly 1", got)
	}

	// No further passes without further events.
	clock.Advance(time.Second)
	if got := passes.count(); got != 1 {
		t.Errorf("pass re-ran without events: %d", got)
	}
}

func TestSchedulerEventDuringRunningCoalesces(t *testing.T) {
	clock := newMockClock()
	var passes counter
	var s *Scheduler
	s = New(func(ctx context.Context) error {
		// Viewport changes while a pass is running must not start a second
		// concurrent pass; they arm one trailing follow-up.
		if passes.count() == 0 {
			s.Notify()
			s.Notify()
		}
		return passes.pass(ctx)
	}, Options{ThrottleDelay: 100 * time.Millisecond, Clock: clock})

	s.Notify()
	clock.Advance(100 * time.Millisecond)
	if got := passes.count(); got != 1 {
		t.Fatalf("first pass count = %d, want 1", got)
	}

	// The two mid-pass events coalesce into one follow-up after the delay.
	clock.Advance(100 * time.Millisecond)
	if got := passes.count(); got != 2 {
		t.Errorf("pass count after follow-up window = %d, want 2", got)
	}
}

func TestSchedulerRecoversFromPassErrors(t *testing.T) {
	clock := newMockClock()
	calls := 0
	s := New(func(context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("synthetic pass failure")
		}
		return nil
	}, Options{ThrottleDelay: 50 * time.Millisecond, Clock: clock})

	s.Notify()
	clock.Advance(50 * time.Millisecond)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	// The exclusivity flag reset despite the error; the next event schedules
	// a normal pass.
	s.Notify()
	clock.Advance(50 * time.Millisecond)
	if calls != 2 {
		t.Errorf("calls after failed pass = %d, want 2", calls)
	}
}

func TestSchedulerContainsPanics(t *testing.T) {
	clock := newMockClock()
	calls := 0
	s := New(func(context.Context) error {
		calls++
		if calls == 1 {
			panic("pass exploded")
		}
		return nil
	}, Options{ThrottleDelay: 50 * time.Millisecond, Clock: clock})

	s.Notify()
	clock.Advance(50 * time.Millisecond) // must not panic the test

	s.Notify()
	clock.Advance(50 * time.Millisecond)
	if calls != 2 {
		t.Errorf("calls after panicking pass = %d, want 2", calls)
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	clock := newMockClock()
	var passes counter
	s := New(passes.pass, Options{ThrottleDelay: 50 * time.Millisecond, Clock: clock})

	// Stop before any Start or Notify is safe.
	s.Stop()
	s.Stop()

	// Events after Stop never run a pass.
	s.Notify()
	clock.Advance(time.Second)
	if got := passes.count(); got != 0 {
		t.Errorf("pass ran %d times after Stop", got)
	}
}

func TestSchedulerStopCancelsPendingTimer(t *testing.T) {
	clock := newMockClock()
	var passes counter
	s := New(passes.pass, Options{ThrottleDelay: 100 * time.Millisecond, Clock: clock})

	s.Notify()
	clock.Advance(50 * time.Millisecond)
	s.Stop()
	clock.Advance(time.Second)

	if got := passes.count(); got != 0 {
		t.Errorf("pending pass ran after Stop: %d", got)
	}
}

func TestSchedulerStartRunsInitialPassAndSubscribes(t *testing.T) {
	clock := newMockClock()
	var passes counter
	s := New(passes.pass, Options{ThrottleDelay: 100 * time.Millisecond, Clock: clock})

	v := view.NewMemoryView(800, 600, 12)
	s.Start(context.Background(), v)

	if got := passes.count(); got != 1 {
		t.Fatalf("initial pass count = %d, want 1", got)
	}

	v.Pan(10, 0)
	clock.Advance(100 * time.Millisecond)
	if got := passes.count(); got != 2 {
		t.Errorf("pass count after pan = %d, want 2", got)
	}

	s.Stop()
	v.Pan(10, 0)
	clock.Advance(time.Second)
	if got := passes.count(); got != 2 {
		t.Errorf("pass ran after Stop detached subscriptions: %d", got)
	}
}

func TestSchedulerOnlyWhenZooming(t *testing.T) {
	clock := newMockClock()
	var passes counter
	s := New(passes.pass, Options{
		ThrottleDelay:   100 * time.Millisecond,
		OnlyWhenZooming: true,
		Clock:           clock,
	})

	v := view.NewMemoryView(800, 600, 12)
	s.Start(context.Background(), v)
	base := passes.count() // initial pass

	v.Pan(50, 50)
	clock.Advance(time.Second)
	if got := passes.count(); got != base {
		t.Errorf("pan scheduled a pass with OnlyWhenZooming: %d", got-base)
	}

	v.SetZoom(13)
	clock.Advance(100 * time.Millisecond)
	if got := passes.count(); got != base+1 {
		t.Errorf("zoom change pass count = %d, want %d", got, base+1)
	}
}

func TestSchedulerStartWithNilViewIsNoOp(t *testing.T) {
	clock := newMockClock()
	var passes counter
	s := New(passes.pass, Options{Clock: clock})

	s.Start(context.Background(), nil)
	if got := passes.count(); got != 0 {
		t.Errorf("nil view still ran %d passes", got)
	}
	s.Stop() // still safe
}

func TestOptionsSetDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()
	if o.ThrottleDelay != DefaultThrottleDelay {
		t.Errorf("ThrottleDelay = %v, want %v", o.ThrottleDelay, DefaultThrottleDelay)
	}
	if o.MaxLabelsPerLayer != DefaultMaxLabelsPerLayer {
		t.Errorf("MaxLabelsPerLayer = %v, want %v", o.MaxLabelsPerLayer, DefaultMaxLabelsPerLayer)
	}
	if o.Clock == nil || o.Logger == nil {
		t.Error("Clock and Logger should be defaulted")
	}
}
