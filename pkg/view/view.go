// Package view defines the capability interfaces through which the label
// engine talks to a map: viewport values and notifications, layer and
// graphic access, symbol mutation, and pointer picking.
//
// The core never assumes ownership of these objects. It reads candidate
// snapshots per pass and writes placements back through the symbol surface,
// checking liveness first — graphics may have been removed while a pass ran.
// The map rendering surface itself is an external collaborator; this package
// also ships an in-memory implementation for the simulator and for tests.
package view

import (
	"context"

	"github.com/mkarras/pinlabel/pkg/geom"
)

// Layer type discriminators.
const (
	// TypeGraphics marks layers whose graphics carry label candidates.
	TypeGraphics = "graphics"
)

// Handle is a removable subscription. Remove is idempotent.
type Handle interface {
	Remove()
}

// HandleFunc adapts a function to the Handle interface.
type HandleFunc func()

// Remove calls f once; further calls are no-ops when f guards itself.
func (f HandleFunc) Remove() {
	if f != nil {
		f()
	}
}

// View exposes the viewport state and notifications of a managed map view.
type View interface {
	// Viewport returns the current viewport values. Read once per pass,
	// never cached across passes.
	Viewport() geom.ViewportSnapshot

	// Projector converts map points to screen pixels for the current
	// viewport.
	Projector() geom.Projector

	// Layers returns the view's layer collection in draw order.
	Layers() []Layer

	// OnZoomChange subscribes to zoom changes.
	OnZoomChange(fn func()) Handle

	// OnExtentChange subscribes to any extent change (pan or zoom).
	OnExtentChange(fn func()) Handle

	// OnLayersChanged subscribes to layer collection changes. added and
	// removed carry the delta, not the full collection.
	OnLayersChanged(fn func(added, removed []Layer)) Handle
}

// Layer is one entry in a view's layer collection.
type Layer interface {
	// ID is stable for the lifetime of the layer and is the idempotency
	// key for lifecycle tracking.
	ID() string

	Title() string

	// Type discriminates layer kinds; only TypeGraphics layers carry
	// label graphics.
	Type() string

	// MinimumZoom is the layer's label zoom threshold; zero means unset.
	MinimumZoom() float64

	// Graphics returns the layer's current graphics. The slice is a
	// snapshot; liveness of each graphic must be re-checked before writes.
	Graphics() []Graphic
}

// Attributes carries the label-relevant feature attributes of a graphic.
type Attributes struct {
	IsLabel    bool
	ObjectID   string
	ParentID   string
	Priority   int
	Importance float64
}

// RGBA is a symbol color. Alpha is in [0,1].
type RGBA struct {
	R uint8
	G uint8
	B uint8
	A float64
}

// Symbol is the mutable visual state of a label graphic. Writers obtain a
// copy, modify it, and replace it whole.
type Symbol struct {
	Text     string
	FontSize float64
	XOffset  float64
	YOffset  float64
	Color    RGBA
}

// Graphic is one feature or label object inside a graphics layer.
type Graphic interface {
	Attributes() Attributes
	SetAttributes(Attributes)

	// MapPoint returns the graphic's anchor in map coordinates.
	MapPoint() (x, y float64)

	Symbol() Symbol
	SetSymbol(Symbol)

	Visible() bool
	SetVisible(bool)

	// Live reports whether the graphic is still present in its layer.
	// Write-backs must check this: a pass may outlive the snapshot it took.
	Live() bool
}

// Picker resolves the graphics under a screen point. Implementations may be
// slow; callers run picks asynchronously and discard stale completions.
type Picker interface {
	Pick(ctx context.Context, at geom.Point) ([]Graphic, error)
}
