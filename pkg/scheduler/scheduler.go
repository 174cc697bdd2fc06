// Package scheduler throttles high-frequency viewport-change events into
// individual label layout passes.
//
// The scheduler is a small state machine per managed view:
//
//	Idle --(viewport change)--> Scheduled --(timer fires)--> Running --> Idle
//
// Events arriving while Scheduled reset the delay timer (trailing-edge
// debounce); events arriving while Running are recorded and coalesced into
// one follow-up pass after the current one completes. At most one pass runs
// at a time. A pass that is already running always finishes — supersession
// happens by never starting a redundant pass, not by cancelling one.
//
// Errors inside a pass are caught at the pass boundary, logged, and never
// propagated; the scheduler always returns to Idle.
package scheduler

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mkarras/pinlabel/pkg/errors"
	"github.com/mkarras/pinlabel/pkg/view"
)

// Default configuration values.
const (
	// DefaultThrottleDelay is the debounce window for viewport events.
	DefaultThrottleDelay = 250 * time.Millisecond

	// DefaultMaxLabelsPerLayer bounds the work one layer can contribute to
	// a pass, keeping pass bodies fast: a running pass cannot be
	// interrupted, only never started.
	DefaultMaxLabelsPerLayer = 100
)

// Options configures a Scheduler.
type Options struct {
	// ThrottleDelay is the trailing-edge debounce window.
	ThrottleDelay time.Duration

	// OnlyWhenZooming subscribes to zoom changes only, instead of every
	// extent change.
	OnlyWhenZooming bool

	// MaxLabelsPerLayer caps candidates gathered per layer each pass.
	MaxLabelsPerLayer int

	// CollisionBuffer is the padding handed to the layout engine.
	CollisionBuffer float64

	// Clock drives the debounce timer. Nil uses real timers.
	Clock Clock

	// Logger receives pass-boundary diagnostics. Nil discards.
	Logger *log.Logger
}

// SetDefaults fills unset fields. Idempotent.
func (o *Options) SetDefaults() {
	if o.ThrottleDelay <= 0 {
		o.ThrottleDelay = DefaultThrottleDelay
	}
	if o.MaxLabelsPerLayer <= 0 {
		o.MaxLabelsPerLayer = DefaultMaxLabelsPerLayer
	}
	if o.Clock == nil {
		o.Clock = NewRealClock()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// PassFunc runs one layout pass. The scheduler treats it as opaque; any
// error or panic is contained at the pass boundary.
type PassFunc func(ctx context.Context) error

// Scheduler debounces viewport events and runs at most one pass at a time.
type Scheduler struct {
	opts Options
	pass PassFunc

	mu      sync.Mutex
	timer   Timer
	pending bool // Scheduled: a timer is armed
	running bool // Running: exclusivity flag for the in-flight pass
	rerun   bool // an event arrived while Running
	stopped bool
	handles []view.Handle
	ctx     context.Context
}

// New creates a scheduler for the given pass function.
func New(pass PassFunc, opts Options) *Scheduler {
	opts.SetDefaults()
	return &Scheduler{opts: opts, pass: pass, ctx: context.Background()}
}

// Start subscribes to the view's viewport notifications and runs the
// initial pass. A nil view is setup misuse: Start logs a diagnostic and
// leaves the scheduler inert (Stop remains safe to call).
func (s *Scheduler) Start(ctx context.Context, v view.View) {
	if v == nil {
		s.opts.Logger.Warn("scheduler started without a view; labels will not update")
		return
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx = ctx

	if s.opts.OnlyWhenZooming {
		s.handles = append(s.handles, v.OnZoomChange(s.Notify))
	} else {
		s.handles = append(s.handles, v.OnExtentChange(s.Notify))
	}
	s.mu.Unlock()

	// Initial pass regardless of events.
	s.runPass()
}

// Notify records one viewport-change event. Safe to call from any
// goroutine and after Stop.
func (s *Scheduler) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.running {
		s.rerun = true
		return
	}
	if s.pending {
		// Trailing-edge debounce: restart the window from the latest event.
		s.timer.Reset(s.opts.ThrottleDelay)
		return
	}
	s.pending = true
	if s.timer == nil {
		s.timer = s.opts.Clock.AfterFunc(s.opts.ThrottleDelay, s.fire)
	} else {
		s.timer.Reset(s.opts.ThrottleDelay)
	}
}

// fire transitions Scheduled -> Running when the debounce timer expires.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.stopped || !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.mu.Unlock()

	s.runPass()
}

// runPass executes one pass under the exclusivity flag and always returns
// the scheduler to Idle, then re-arms if events arrived mid-pass.
func (s *Scheduler) runPass() {
	s.mu.Lock()
	if s.stopped || s.running {
		// A concurrent fire raced a running pass; record and bail.
		if s.running {
			s.rerun = true
		}
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx := s.ctx
	s.mu.Unlock()

	start := s.opts.Clock.Now()
	err := s.invoke(ctx)
	if err != nil {
		s.opts.Logger.Error("layout pass failed",
			"err", err,
			"duration", s.opts.Clock.Now().Sub(start))
	}

	s.mu.Lock()
	s.running = false
	again := s.rerun && !s.stopped
	s.rerun = false
	s.mu.Unlock()

	if again {
		s.Notify()
	}
}

// invoke calls the pass function, converting panics into PassFailure errors
// so the exclusivity flag always resets.
func (s *Scheduler) invoke(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodePassFailure, "panic in layout pass: %v", r)
		}
	}()
	if s.pass == nil {
		return nil
	}
	return s.pass(ctx)
}

// Stop cancels any pending timer and detaches viewport subscriptions.
// Idempotent: safe to call repeatedly or before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
	}
	handles := s.handles
	s.handles = nil
	s.mu.Unlock()

	for _, h := range handles {
		h.Remove()
	}
}

// Options returns the scheduler's effective options (after defaults).
func (s *Scheduler) Options() Options {
	return s.opts
}
