// Package pass executes label placement passes over a view.
//
// A pass snapshots the viewport and the tracked layers, gathers label
// candidates from each layer's graphics, runs the collision layout, and
// writes placements back through the symbol surface. The graphics are owned
// by the view and may disappear while the pass runs, so every write-back is
// preceded by a liveness check.
package pass

import (
	"context"
	"io"
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mkarras/pinlabel/pkg/geom"
	"github.com/mkarras/pinlabel/pkg/label"
	"github.com/mkarras/pinlabel/pkg/observability"
	"github.com/mkarras/pinlabel/pkg/tracker"
	"github.com/mkarras/pinlabel/pkg/view"
)

// Options configures pass execution.
type Options struct {
	// MaxLabelsPerLayer caps how many candidates each layer contributes,
	// highest priority first. Zero means the default.
	MaxLabelsPerLayer int

	// CollisionBuffer is the padding in pixels kept between label boxes.
	// Zero means the engine default.
	CollisionBuffer float64

	// NoCollisions disables overlap avoidance; labels take their default
	// offset regardless of neighbors. The negated name keeps the zero
	// value meaning "avoid collisions".
	NoCollisions bool

	// Logger receives pass diagnostics. Nil discards them.
	Logger *log.Logger
}

// SetDefaults fills unset fields. Idempotent.
func (o *Options) SetDefaults() {
	if o.MaxLabelsPerLayer == 0 {
		o.MaxLabelsPerLayer = label.DefaultMaxVisibleLabels
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Stats summarizes one pass.
type Stats struct {
	Layers     int           `json:"layers"`
	Skipped    int           `json:"skipped"`
	Candidates int           `json:"candidates"`
	Placed     int           `json:"placed"`
	Hidden     int           `json:"hidden"`
	Duration   time.Duration `json:"duration"`
}

// Run executes one placement pass over the tracked layers of a view.
//
// For each layer: if the layer is already being processed it is skipped; if
// the viewport zoom is below the layer's minimum, its labels are hidden; and
// otherwise its label graphics become candidates for the collision layout,
// whose placements are written back to the surviving graphics.
//
// Run never fails the whole pass for a single bad graphic. It returns an
// error only when the view itself is unusable.
func Run(ctx context.Context, v view.View, tr *tracker.Tracker, opts Options) (Stats, error) {
	var stats Stats
	if v == nil || tr == nil {
		return stats, nil
	}
	opts.SetDefaults()

	start := time.Now()
	tracked := tr.Snapshot()
	observability.Pass().OnPassStart(ctx, len(tracked))

	vp := v.Viewport()
	proj := v.Projector()

	for _, tl := range tracked {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(start)
			observability.Pass().OnPassComplete(ctx, stats.Candidates, stats.Placed, stats.Duration, err)
			return stats, err
		}

		if !tr.BeginProcessing(tl.State.LayerID) {
			stats.Skipped++
			continue
		}
		layerStats := runLayer(ctx, tl, vp, proj, opts)
		tr.EndProcessing(tl.State.LayerID)

		stats.Layers++
		stats.Candidates += layerStats.Candidates
		stats.Placed += layerStats.Placed
		stats.Hidden += layerStats.Hidden
	}

	stats.Duration = time.Since(start)
	opts.Logger.Debug("pass complete",
		"layers", stats.Layers,
		"candidates", stats.Candidates,
		"placed", stats.Placed,
		"hidden", stats.Hidden,
		"duration", stats.Duration)
	observability.Pass().OnPassComplete(ctx, stats.Candidates, stats.Placed, stats.Duration, nil)
	return stats, nil
}

// runLayer lays out one layer's labels.
func runLayer(ctx context.Context, tl tracker.Tracked, vp geom.ViewportSnapshot, proj geom.Projector, opts Options) Stats {
	var stats Stats

	graphics := tl.Layer.Graphics()

	if !label.ShouldShowLabels(vp.Zoom, tl.State.MinimumZoom) {
		stats.Hidden = hideAll(graphics)
		return stats
	}

	candidates, byID := gather(graphics, proj, opts.MaxLabelsPerLayer)
	stats.Candidates = len(candidates)
	if len(candidates) == 0 {
		return stats
	}

	cfg := label.Config{
		ViewportWidth:    vp.Width,
		ViewportHeight:   vp.Height,
		AvoidCollisions:  !opts.NoCollisions,
		MaxVisibleLabels: opts.MaxLabelsPerLayer,
		Padding:          opts.CollisionBuffer,
	}

	layoutStart := time.Now()
	observability.Pass().OnLayoutStart(ctx, len(candidates))
	placements := label.Layout(candidates, cfg)

	visible := 0
	for _, p := range placements {
		g, ok := byID[p.ID]
		if !ok || !g.Live() {
			continue
		}
		apply(g, p)
		if p.Visible {
			visible++
			stats.Placed++
		} else {
			stats.Hidden++
		}
	}
	observability.Pass().OnLayoutComplete(ctx, visible, time.Since(layoutStart))
	return stats
}

// gather converts a layer's label graphics into layout candidates, capped to
// the highest-priority limit. The returned map resolves placements back to
// their graphics.
func gather(graphics []view.Graphic, proj geom.Projector, limit int) ([]label.Candidate, map[string]view.Graphic) {
	candidates := make([]label.Candidate, 0, len(graphics))
	byID := make(map[string]view.Graphic, len(graphics))

	for _, g := range graphics {
		if g == nil || !g.Live() {
			continue
		}
		attrs := g.Attributes()
		if !attrs.IsLabel {
			continue
		}
		if _, seen := byID[attrs.ObjectID]; seen {
			continue
		}

		x, y := g.MapPoint()
		screen := geom.Point{X: math.NaN(), Y: math.NaN()}
		if pt, ok := proj.ToScreen(x, y); ok {
			screen = pt
		}

		sym := g.Symbol()
		candidates = append(candidates, label.Candidate{
			ID:       attrs.ObjectID,
			ScreenX:  screen.X,
			ScreenY:  screen.Y,
			Text:     sym.Text,
			FontSize: sym.FontSize,
			Priority: attrs.Priority,
			ParentID: attrs.ParentID,
		})
		byID[attrs.ObjectID] = g
	}

	if limit > 0 && len(candidates) > limit {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Priority > candidates[j].Priority
		})
		for _, c := range candidates[limit:] {
			delete(byID, c.ID)
		}
		candidates = candidates[:limit]
	}
	return candidates, byID
}

// apply writes one placement to a live graphic.
func apply(g view.Graphic, p label.Placement) {
	sym := g.Symbol()
	sym.XOffset = p.OffsetX
	sym.YOffset = p.OffsetY
	g.SetSymbol(sym)
	g.SetVisible(p.Visible)
}

// hideAll hides every live label graphic in a layer. Used below the zoom
// threshold. Returns the number hidden.
func hideAll(graphics []view.Graphic) int {
	hidden := 0
	for _, g := range graphics {
		if g == nil || !g.Live() || !g.Attributes().IsLabel {
			continue
		}
		if g.Visible() {
			g.SetVisible(false)
		}
		hidden++
	}
	return hidden
}
