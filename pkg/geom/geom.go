// Package geom provides the screen-space geometry primitives used by the
// label placement engine: points, axis-aligned rectangles, and map extents.
//
// All coordinates are in pixels with the origin at the top-left of the
// viewport, x growing right and y growing down. Extents use inclusive bounds
// on all four edges, matching the classification rule used by extent-based
// emphasis.
package geom

import "math"

// Point is a position in screen space.
type Point struct {
	X float64
	Y float64
}

// IsFinite reports whether both coordinates are finite numbers.
// Candidates projected to NaN or infinity are treated as malformed.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Rect is an axis-aligned rectangle in screen space.
// Valid rects satisfy Left <= Right and Top <= Bottom.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// RectAround returns the rect of the given width and height centered at p.
func RectAround(p Point, width, height float64) Rect {
	return Rect{
		Left:   p.X - width/2,
		Top:    p.Y - height/2,
		Right:  p.X + width/2,
		Bottom: p.Y + height/2,
	}
}

// Width returns the horizontal size of the rect.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical size of the rect.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Center returns the midpoint of the rect.
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Inflate grows the rect by pad on every side.
// A negative pad shrinks the rect; callers must keep it valid.
func (r Rect) Inflate(pad float64) Rect {
	return Rect{
		Left:   r.Left - pad,
		Top:    r.Top - pad,
		Right:  r.Right + pad,
		Bottom: r.Bottom + pad,
	}
}

// Translate returns the rect shifted by dx, dy.
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{
		Left:   r.Left + dx,
		Top:    r.Top + dy,
		Right:  r.Right + dx,
		Bottom: r.Bottom + dy,
	}
}

// Intersects reports whether r and other overlap.
// Rects that merely touch along an edge do not intersect.
func (r Rect) Intersects(other Rect) bool {
	return r.Left < other.Right && r.Right > other.Left &&
		r.Top < other.Bottom && r.Bottom > other.Top
}

// Within reports whether r lies fully inside the [0,width] x [0,height]
// viewport, bounds inclusive.
func (r Rect) Within(width, height float64) bool {
	return r.Left >= 0 && r.Top >= 0 && r.Right <= width && r.Bottom <= height
}

// Extent is a rectangular region in map coordinates with inclusive bounds.
type Extent struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Valid reports whether the extent is well-formed: finite values and
// non-inverted bounds.
func (e Extent) Valid() bool {
	for _, v := range [...]float64{e.XMin, e.YMin, e.XMax, e.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return e.XMin <= e.XMax && e.YMin <= e.YMax
}

// Contains reports whether the point lies inside the extent.
// Points exactly on an edge count as inside.
func (e Extent) Contains(x, y float64) bool {
	return x >= e.XMin && x <= e.XMax && y >= e.YMin && y <= e.YMax
}
