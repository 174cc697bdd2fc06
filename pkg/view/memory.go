package view

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/mkarras/pinlabel/pkg/geom"
)

// =============================================================================
// MemoryView - In-Memory View Implementation
// =============================================================================

// MemoryView is an in-memory View for the simulator and for tests. It models
// a flat map: screen position = (map position - extent origin) * scale, with
// scale derived from the zoom level.
//
// All methods are safe for concurrent use; notification callbacks run on the
// goroutine that triggered the change.
type MemoryView struct {
	mu sync.Mutex

	width  float64
	height float64
	zoom   float64
	// centerX/centerY is the map point at the viewport center.
	centerX float64
	centerY float64

	layers []*MemoryLayer

	nextSub  int
	zoomSubs map[int]func()
	extSubs  map[int]func()
	layrSubs map[int]func(added, removed []Layer)
}

// NewMemoryView creates a view with the given viewport size and zoom.
func NewMemoryView(width, height, zoom float64) *MemoryView {
	return &MemoryView{
		width:    width,
		height:   height,
		zoom:     zoom,
		zoomSubs: make(map[int]func()),
		extSubs:  make(map[int]func()),
		layrSubs: make(map[int]func(added, removed []Layer)),
	}
}

// scale returns pixels per map unit at the current zoom. Doubling per zoom
// level, with zoom 10 at 1 px per unit, mirrors common web map tiling.
func (v *MemoryView) scale() float64 {
	return math.Pow(2, v.zoom-10)
}

// Viewport implements View.
func (v *MemoryView) Viewport() geom.ViewportSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return geom.ViewportSnapshot{Zoom: v.zoom, Width: v.width, Height: v.height}
}

// Projector implements View.
func (v *MemoryView) Projector() geom.Projector {
	v.mu.Lock()
	cx, cy := v.centerX, v.centerY
	w, h := v.width, v.height
	s := v.scale()
	v.mu.Unlock()

	return geom.ProjectorFunc(func(mapX, mapY float64) (geom.Point, bool) {
		p := geom.Point{
			X: (mapX-cx)*s + w/2,
			Y: (mapY-cy)*s + h/2,
		}
		return p, p.IsFinite()
	})
}

// Layers implements View.
func (v *MemoryView) Layers() []Layer {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Layer, len(v.layers))
	for i, l := range v.layers {
		out[i] = l
	}
	return out
}

// OnZoomChange implements View.
func (v *MemoryView) OnZoomChange(fn func()) Handle {
	return v.subscribe(v.zoomSubs, fn)
}

// OnExtentChange implements View.
func (v *MemoryView) OnExtentChange(fn func()) Handle {
	return v.subscribe(v.extSubs, fn)
}

func (v *MemoryView) subscribe(m map[int]func(), fn func()) Handle {
	v.mu.Lock()
	id := v.nextSub
	v.nextSub++
	m[id] = fn
	v.mu.Unlock()

	var once sync.Once
	return HandleFunc(func() {
		once.Do(func() {
			v.mu.Lock()
			delete(m, id)
			v.mu.Unlock()
		})
	})
}

// OnLayersChanged implements View.
func (v *MemoryView) OnLayersChanged(fn func(added, removed []Layer)) Handle {
	v.mu.Lock()
	id := v.nextSub
	v.nextSub++
	v.layrSubs[id] = fn
	v.mu.Unlock()

	var once sync.Once
	return HandleFunc(func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.layrSubs, id)
			v.mu.Unlock()
		})
	})
}

// SetZoom updates the zoom level and notifies zoom and extent subscribers.
func (v *MemoryView) SetZoom(zoom float64) {
	v.mu.Lock()
	v.zoom = zoom
	zoomFns := snapshotFns(v.zoomSubs)
	extFns := snapshotFns(v.extSubs)
	v.mu.Unlock()

	for _, fn := range zoomFns {
		fn()
	}
	for _, fn := range extFns {
		fn()
	}
}

// Pan moves the viewport center by dx, dy map units and notifies extent
// subscribers.
func (v *MemoryView) Pan(dx, dy float64) {
	v.mu.Lock()
	v.centerX += dx
	v.centerY += dy
	extFns := snapshotFns(v.extSubs)
	v.mu.Unlock()

	for _, fn := range extFns {
		fn()
	}
}

// AddLayer appends a layer and notifies layer subscribers.
func (v *MemoryView) AddLayer(l *MemoryLayer) {
	v.mu.Lock()
	v.layers = append(v.layers, l)
	fns := snapshotLayerFns(v.layrSubs)
	v.mu.Unlock()

	for _, fn := range fns {
		fn([]Layer{l}, nil)
	}
}

// RemoveLayer removes a layer by ID and notifies layer subscribers.
// Removing an unknown ID is a no-op.
func (v *MemoryView) RemoveLayer(id string) {
	v.mu.Lock()
	var removed *MemoryLayer
	kept := v.layers[:0]
	for _, l := range v.layers {
		if l.ID() == id && removed == nil {
			removed = l
			continue
		}
		kept = append(kept, l)
	}
	v.layers = kept
	fns := snapshotLayerFns(v.layrSubs)
	v.mu.Unlock()

	if removed == nil {
		return
	}
	removed.markAllDead()
	for _, fn := range fns {
		fn(nil, []Layer{removed})
	}
}

func snapshotFns(m map[int]func()) []func() {
	out := make([]func(), 0, len(m))
	for _, fn := range m {
		out = append(out, fn)
	}
	return out
}

func snapshotLayerFns(m map[int]func(added, removed []Layer)) []func(added, removed []Layer) {
	out := make([]func(added, removed []Layer), 0, len(m))
	for _, fn := range m {
		out = append(out, fn)
	}
	return out
}

// Pick implements Picker: it returns the graphics whose projected position
// lies within a small radius of the given screen point.
func (v *MemoryView) Pick(ctx context.Context, at geom.Point) ([]Graphic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	const radius = 8.0
	proj := v.Projector()

	var hits []Graphic
	for _, l := range v.Layers() {
		for _, g := range l.Graphics() {
			mx, my := g.MapPoint()
			p, ok := proj.ToScreen(mx, my)
			if !ok {
				continue
			}
			if math.Hypot(p.X-at.X, p.Y-at.Y) <= radius {
				hits = append(hits, g)
			}
		}
	}
	return hits, nil
}

// =============================================================================
// MemoryLayer
// =============================================================================

// MemoryLayer is an in-memory graphics layer.
type MemoryLayer struct {
	mu sync.Mutex

	id       string
	title    string
	kind     string
	minZoom  float64
	graphics []*MemoryGraphic
}

// NewMemoryLayer creates a graphics layer. minimumZoom zero means unset.
func NewMemoryLayer(id, title string, minimumZoom float64) *MemoryLayer {
	return &MemoryLayer{id: id, title: title, kind: TypeGraphics, minZoom: minimumZoom}
}

func (l *MemoryLayer) ID() string           { return l.id }
func (l *MemoryLayer) Title() string        { return l.title }
func (l *MemoryLayer) Type() string         { return l.kind }
func (l *MemoryLayer) MinimumZoom() float64 { return l.minZoom }

// Graphics implements Layer.
func (l *MemoryLayer) Graphics() []Graphic {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Graphic, len(l.graphics))
	for i, g := range l.graphics {
		out[i] = g
	}
	return out
}

// Add appends a graphic to the layer.
func (l *MemoryLayer) Add(g *MemoryGraphic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	g.live.Store(true)
	l.graphics = append(l.graphics, g)
}

// Remove deletes a graphic by object ID and marks it dead.
func (l *MemoryLayer) Remove(objectID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.graphics[:0]
	for _, g := range l.graphics {
		if g.Attributes().ObjectID == objectID {
			g.live.Store(false)
			continue
		}
		kept = append(kept, g)
	}
	l.graphics = kept
}

func (l *MemoryLayer) markAllDead() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, g := range l.graphics {
		g.live.Store(false)
	}
}

// =============================================================================
// MemoryGraphic
// =============================================================================

// MemoryGraphic is an in-memory label graphic.
type MemoryGraphic struct {
	mu      sync.Mutex
	attrs   Attributes
	mapX    float64
	mapY    float64
	symbol  Symbol
	visible bool
	live    atomic.Bool
}

// NewMemoryGraphic creates a visible graphic at the given map position.
func NewMemoryGraphic(attrs Attributes, mapX, mapY float64, symbol Symbol) *MemoryGraphic {
	g := &MemoryGraphic{attrs: attrs, mapX: mapX, mapY: mapY, symbol: symbol, visible: true}
	g.live.Store(true)
	return g
}

func (g *MemoryGraphic) Attributes() Attributes {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attrs
}

func (g *MemoryGraphic) SetAttributes(a Attributes) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attrs = a
}

func (g *MemoryGraphic) MapPoint() (float64, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mapX, g.mapY
}

func (g *MemoryGraphic) Symbol() Symbol {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.symbol
}

func (g *MemoryGraphic) SetSymbol(s Symbol) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.symbol = s
}

func (g *MemoryGraphic) Visible() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible
}

func (g *MemoryGraphic) SetVisible(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.visible = v
}

func (g *MemoryGraphic) Live() bool { return g.live.Load() }

// Interface assertions.
var (
	_ View    = (*MemoryView)(nil)
	_ Picker  = (*MemoryView)(nil)
	_ Layer   = (*MemoryLayer)(nil)
	_ Graphic = (*MemoryGraphic)(nil)
)
