package label

import (
	"sort"

	"github.com/mkarras/pinlabel/pkg/geom"
)

// offsetSlot identifies one entry in the offset search order.
type offsetSlot int

// Offset search order. The engine tries these positions in this exact order
// for every candidate; the list is fixed so layout stays deterministic.
const (
	slotAbove offsetSlot = iota
	slotRight
	slotBelow
	slotLeft

	slotCount
)

// offsetFor returns the center offset from the anchor for a slot, given the
// label box dimensions and padding. Each slot places the box adjacent to the
// anchor on one side, separated by the padding.
func offsetFor(slot offsetSlot, w, h, pad float64) (dx, dy float64) {
	switch slot {
	case slotAbove:
		return 0, -(h/2 + pad)
	case slotRight:
		return w/2 + pad, 0
	case slotBelow:
		return 0, h/2 + pad
	default: // slotLeft
		return -(w/2 + pad), 0
	}
}

// boxFor estimates the screen-space bounding box of a candidate's text,
// centered at the anchor before any offset is applied.
func boxFor(c Candidate) (w, h float64) {
	size := c.fontSize()
	return float64(len([]rune(c.Text))) * size * WidthFactor, size * HeightFactor
}

// Layout computes a placement for every candidate. It is pure and
// deterministic: the same candidates in the same order with the same config
// always produce identical placements.
//
// Candidates are processed in descending priority order with ties broken by
// input order. Each accepted label reserves its padded bounding box; later
// candidates must avoid all reserved boxes and stay fully on screen. A
// candidate that cannot be placed, is malformed, or arrives after the
// visible cap is reached is emitted with Visible=false and the default
// (above-anchor) offset.
//
// The returned slice is in priority order, which is also the order the pass
// runner applies placements in. Layout never panics on malformed input.
func Layout(candidates []Candidate, cfg Config) []Placement {
	placements := make([]Placement, 0, len(candidates))
	if len(candidates) == 0 {
		return placements
	}

	// An unusable config degrades to everything hidden rather than failing:
	// nothing inside a pass is allowed to escape to the caller.
	usable := cfg.Validate() == nil

	// Stable sort: ties keep input order.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].Priority > candidates[order[b]].Priority
	})

	occupied := make([]geom.Rect, 0, len(candidates))
	accepted := 0

	for _, idx := range order {
		c := candidates[idx]

		// An unusable config may carry a non-finite padding, so its hidden
		// placements get no offset at all.
		if !usable {
			placements = append(placements, Placement{ID: c.ID})
			continue
		}

		if c.Malformed() {
			// Hidden, but with the same default offset as every other
			// rejected candidate. boxFor sanitizes the font size, so the
			// offset stays finite even for garbage input.
			w, h := boxFor(c)
			dx, dy := offsetFor(slotAbove, w, h, cfg.Padding)
			placements = append(placements, Placement{ID: c.ID, OffsetX: dx, OffsetY: dy})
			continue
		}

		w, h := boxFor(c)
		anchor := geom.Point{X: c.ScreenX, Y: c.ScreenY}
		defaultDX, defaultDY := offsetFor(slotAbove, w, h, cfg.Padding)

		if accepted >= cfg.MaxVisibleLabels {
			placements = append(placements, Placement{
				ID: c.ID, OffsetX: defaultDX, OffsetY: defaultDY,
			})
			continue
		}

		if !cfg.AvoidCollisions {
			placements = append(placements, Placement{
				ID: c.ID, OffsetX: defaultDX, OffsetY: defaultDY, Visible: true,
			})
			accepted++
			continue
		}

		placed := false
		for slot := offsetSlot(0); slot < slotCount; slot++ {
			dx, dy := offsetFor(slot, w, h, cfg.Padding)
			box := geom.RectAround(anchor, w, h).Translate(dx, dy).Inflate(cfg.Padding)

			if !box.Within(cfg.ViewportWidth, cfg.ViewportHeight) {
				continue
			}
			if intersectsAny(box, occupied) {
				continue
			}

			occupied = append(occupied, box)
			placements = append(placements, Placement{
				ID: c.ID, OffsetX: dx, OffsetY: dy, Visible: true,
			})
			accepted++
			placed = true
			break
		}

		if !placed {
			placements = append(placements, Placement{
				ID: c.ID, OffsetX: defaultDX, OffsetY: defaultDY,
			})
		}
	}

	return placements
}

// intersectsAny reports whether box overlaps any reserved rect.
// Linear scan: the visible cap bounds the reserved set, and candidate counts
// per pass stay small enough that an index structure does not pay off.
func intersectsAny(box geom.Rect, occupied []geom.Rect) bool {
	for _, r := range occupied {
		if box.Intersects(r) {
			return true
		}
	}
	return false
}
