// Package label implements the collision layout engine for map point labels.
//
// The engine is a pure function from a set of label candidates plus a layout
// configuration to a set of placements. It uses a bounded, greedy,
// priority-ordered placement heuristic: candidates are processed in
// descending priority order, each one tries a fixed list of offsets around
// its anchor, and the first offset whose bounding box neither collides with
// an already reserved box nor leaves the viewport wins. This is not optimal
// packing, but it is stable, predictable, and cheap enough to run on every
// throttled viewport change.
//
// # Pipeline position
//
//	viewport change → scheduler → gather candidates → zoom gate →
//	    label.Layout → placements applied to the rendering surface
//
// The zoom gate (ShouldShowLabels) is independent of collision layout: a
// layer's labels display only when both the gate and the per-placement
// Visible flag allow it.
package label
