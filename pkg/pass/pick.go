package pass

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mkarras/pinlabel/pkg/errors"
	"github.com/mkarras/pinlabel/pkg/geom"
	"github.com/mkarras/pinlabel/pkg/observability"
	"github.com/mkarras/pinlabel/pkg/view"
)

// AsyncPicker issues pointer picks against a view's picker without blocking
// the caller. Each request bumps a generation counter; when a pick completes,
// its result is applied only if no newer request was issued in the meantime.
// Stale completions are discarded, so rapid pointer movement converges on the
// latest position instead of replaying outdated hits.
//
// Pick failures are logged and swallowed: a failed hover lookup must never
// take down the interaction loop.
type AsyncPicker struct {
	picker view.Picker
	apply  func(at geom.Point, hits []view.Graphic)
	logger *log.Logger

	gen atomic.Uint64
}

// NewAsyncPicker creates an async picker. apply is invoked on the picking
// goroutine with the hits of the newest completed request; it must be safe
// to call from any goroutine. A nil logger discards diagnostics.
func NewAsyncPicker(picker view.Picker, apply func(at geom.Point, hits []view.Graphic), logger *log.Logger) *AsyncPicker {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &AsyncPicker{
		picker: picker,
		apply:  apply,
		logger: logger,
	}
}

// Request issues a pick at a screen point. Returns immediately; the result
// is delivered to the apply callback unless superseded by a newer request.
func (a *AsyncPicker) Request(ctx context.Context, at geom.Point) {
	if a.picker == nil {
		return
	}
	gen := a.gen.Add(1)
	observability.Pick().OnPickStart(ctx, gen)

	go func() {
		start := time.Now()
		hits, err := a.picker.Pick(ctx, at)
		if err != nil {
			wrapped := errors.Wrap(errors.ErrCodeAsyncLookup, err,
				"pick at (%.1f, %.1f) failed", at.X, at.Y)
			a.logger.Warn("pick failed", "error", wrapped)
			return
		}

		// A newer request supersedes this one.
		if a.gen.Load() != gen {
			observability.Pick().OnPickDiscarded(ctx, gen)
			return
		}

		observability.Pick().OnPickComplete(ctx, gen, len(hits), time.Since(start))
		if a.apply != nil {
			a.apply(at, hits)
		}
	}()
}

// Generation returns the current request generation. Useful in tests.
func (a *AsyncPicker) Generation() uint64 {
	return a.gen.Load()
}
