// Package emphasis re-prioritizes and fades labels relative to a map
// extent in one batch operation: labels inside the extent are forced
// visible and boosted, labels outside are faded.
package emphasis

import (
	"hash/fnv"
	"math"
	"strconv"

	"github.com/mkarras/pinlabel/pkg/errors"
	"github.com/mkarras/pinlabel/pkg/geom"
	"github.com/mkarras/pinlabel/pkg/view"
)

// Default option values.
const (
	// DefaultPriorityBoost is the conventional multiplier for labels inside
	// the extent. Callers that want a boost start here; Enhance itself never
	// substitutes it for a zero boost.
	DefaultPriorityBoost = 2.0

	// DefaultOutsideOpacity is the alpha applied to labels outside the
	// extent.
	DefaultOutsideOpacity = 0.4
)

// Options configures one Enhance call.
type Options struct {
	// PriorityBoost multiplies priority and importance of inside labels.
	// A boost of zero or less leaves priorities untouched; inside labels
	// are still forced visible.
	PriorityBoost float64

	// OutsideOpacity is the alpha for labels outside the extent,
	// clamped to [0,1]. Zero means unset (the default applies); an
	// opacity of 1 leaves outside labels visually unchanged.
	OutsideOpacity float64

	// Palette optionally recolors inside labels. The color index is
	// derived deterministically from the label's parent ID.
	Palette []view.RGBA
}

// SetDefaults fills the unset opacity and clamps it. The boost is left
// alone: zero is an explicit no-op, not an unset value. Idempotent.
func (o *Options) SetDefaults() {
	if o.OutsideOpacity == 0 {
		o.OutsideOpacity = DefaultOutsideOpacity
	}
	o.OutsideOpacity = math.Min(1, math.Max(0, o.OutsideOpacity))
}

// Stats summarizes one Enhance call.
type Stats struct {
	Inside   int `json:"inside"`
	Outside  int `json:"outside"`
	Enhanced int `json:"enhanced"`
}

// Enhance classifies each live label as inside or outside the extent
// (inclusive bounds) and applies the emphasis in place through the symbol
// surface.
//
// Inside labels are forced visible, their priority and importance are
// multiplied by the boost, and they are recolored when a palette is set.
// Outside labels keep their visibility but their symbol alpha is set to the
// outside opacity.
//
// Enhance is deliberately not idempotent: the priority boost is
// multiplicative, so running it twice compounds to boost². Callers that
// re-emphasize must reset priorities themselves first.
func Enhance(labels []view.Graphic, extent geom.Extent, opts Options) (Stats, error) {
	var stats Stats
	if !extent.Valid() {
		return stats, errors.New(errors.ErrCodeInvalidExtent,
			"extent bounds are not usable: %+v", extent)
	}
	opts.SetDefaults()

	for _, g := range labels {
		if g == nil || !g.Live() {
			continue
		}

		x, y := g.MapPoint()
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}

		if extent.Contains(x, y) {
			stats.Inside++
			if boostLabel(g, opts) {
				stats.Enhanced++
			}
		} else {
			stats.Outside++
			fadeLabel(g, opts.OutsideOpacity)
		}
	}

	return stats, nil
}

// boostLabel applies the inside emphasis to one label. Reports whether the
// label was changed.
func boostLabel(g view.Graphic, opts Options) bool {
	g.SetVisible(true)

	changed := false
	if opts.PriorityBoost > 0 {
		attrs := g.Attributes()
		attrs.Priority = int(math.Round(float64(attrs.Priority) * opts.PriorityBoost))
		attrs.Importance *= opts.PriorityBoost
		g.SetAttributes(attrs)
		changed = true
	}

	if len(opts.Palette) > 0 {
		sym := g.Symbol()
		c := opts.Palette[colorIndex(g.Attributes().ParentID, len(opts.Palette))]
		// Keep the current alpha; the palette chooses hue only.
		c.A = sym.Color.A
		sym.Color = c
		g.SetSymbol(sym)
		changed = true
	}

	return changed
}

// fadeLabel sets the symbol alpha of an outside label.
func fadeLabel(g view.Graphic, opacity float64) {
	sym := g.Symbol()
	sym.Color.A = opacity
	g.SetSymbol(sym)
}

// colorIndex maps a parent ID onto a palette slot: numeric IDs index by
// value modulo the palette size, everything else hashes first so the choice
// stays deterministic.
func colorIndex(parentID string, paletteLen int) int {
	if n, err := strconv.Atoi(parentID); err == nil && n >= 0 {
		return n % paletteLen
	}
	h := fnv.New32a()
	h.Write([]byte(parentID))
	return int(h.Sum32() % uint32(paletteLen))
}
