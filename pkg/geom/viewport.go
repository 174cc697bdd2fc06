package geom

// ViewportSnapshot captures the viewport values a layout pass needs.
// Snapshots are read once at the start of a pass and never persisted;
// a newer pass always takes a fresh one.
type ViewportSnapshot struct {
	Zoom   float64
	Width  float64
	Height float64
}

// Projector converts a map-space point to a screen-space pixel position for
// the current viewport. Implementations are owned by the rendering surface;
// the engine consumes them read-only.
type Projector interface {
	// ToScreen projects a map point. ok is false when the point cannot be
	// projected (e.g. outside the projectable area); callers treat such
	// candidates as malformed.
	ToScreen(mapX, mapY float64) (p Point, ok bool)
}

// ProjectorFunc adapts a function to the Projector interface.
type ProjectorFunc func(mapX, mapY float64) (Point, bool)

// ToScreen calls f.
func (f ProjectorFunc) ToScreen(mapX, mapY float64) (Point, bool) {
	return f(mapX, mapY)
}
