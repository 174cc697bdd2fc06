// Package tracker owns the per-view registry of layers whose labels are
// managed. It observes the view's layer collection, attaching per-layer
// state exactly once per layer and forgetting state when a layer leaves,
// so repeated add/remove cycles never leak.
package tracker

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/mkarras/pinlabel/pkg/label"
	"github.com/mkarras/pinlabel/pkg/view"
)

// LayerState is the tracked state for one layer.
type LayerState struct {
	LayerID     string
	Title       string
	MinimumZoom float64

	// InProcess guards against overlapping passes touching the same layer.
	// This is per-layer, not global exclusivity; the scheduler owns that.
	InProcess bool
}

// entry pairs a live layer handle with its state.
type entry struct {
	layer view.Layer
	state LayerState
}

// Tracker is the per-view layer registry.
type Tracker struct {
	logger *log.Logger

	mu       sync.Mutex
	entries  map[string]*entry
	handle   view.Handle
	attached bool
}

// New creates an empty tracker. A nil logger discards diagnostics.
func New(logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Tracker{
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Attach walks the view's current layers, registers each graphics layer
// exactly once, and subscribes to layer collection changes. Calling Attach
// again re-walks the collection but never duplicates per-layer state; the
// layer ID is the idempotency key. A nil view is setup misuse and leaves
// the tracker unchanged.
func (t *Tracker) Attach(v view.View) {
	if v == nil {
		t.logger.Warn("tracker attach called without a view")
		return
	}

	t.mu.Lock()
	if !t.attached {
		t.handle = v.OnLayersChanged(t.onLayersChanged)
		t.attached = true
	}
	t.mu.Unlock()

	for _, l := range v.Layers() {
		t.register(l)
	}
}

// Detach unsubscribes and clears all tracked state. Safe to call before
// Attach or repeatedly.
func (t *Tracker) Detach() {
	t.mu.Lock()
	handle := t.handle
	t.handle = nil
	t.attached = false
	t.entries = make(map[string]*entry)
	t.mu.Unlock()

	if handle != nil {
		handle.Remove()
	}
}

// onLayersChanged applies a layer collection delta.
func (t *Tracker) onLayersChanged(added, removed []view.Layer) {
	for _, l := range added {
		t.register(l)
	}
	for _, l := range removed {
		t.forget(l.ID())
	}
}

// register adds per-layer state for a graphics layer exactly once.
func (t *Tracker) register(l view.Layer) {
	if l.Type() != view.TypeGraphics {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	id := l.ID()
	if _, ok := t.entries[id]; ok {
		return
	}
	t.entries[id] = &entry{
		layer: l,
		state: LayerState{
			LayerID:     id,
			Title:       l.Title(),
			MinimumZoom: label.MinimumZoomOrDefault(l.MinimumZoom()),
		},
	}
	t.logger.Debug("tracking layer", "layer", id, "min_zoom", t.entries[id].state.MinimumZoom)
}

// forget drops all state for a removed layer.
func (t *Tracker) forget(id string) {
	t.mu.Lock()
	_, ok := t.entries[id]
	delete(t.entries, id)
	t.mu.Unlock()

	if ok {
		t.logger.Debug("forgot layer", "layer", id)
	}
}

// Tracked is a snapshot of one registered layer handed to a pass.
type Tracked struct {
	Layer view.Layer
	State LayerState
}

// Snapshot returns the tracked layers. The returned slice is a copy; the
// layer handles inside it must still be liveness-checked before writes.
func (t *Tracker) Snapshot() []Tracked {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Tracked, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, Tracked{Layer: e.layer, State: e.state})
	}
	return out
}

// Len returns the number of tracked layers.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// BeginProcessing marks a layer as owned by an in-flight pass. Returns
// false when the layer is unknown or already being processed, in which case
// the caller must skip it.
func (t *Tracker) BeginProcessing(layerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[layerID]
	if !ok || e.state.InProcess {
		return false
	}
	e.state.InProcess = true
	return true
}

// EndProcessing releases a layer claimed by BeginProcessing. Unknown IDs
// are ignored: the layer may have been removed while the pass ran.
func (t *Tracker) EndProcessing(layerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[layerID]; ok {
		e.state.InProcess = false
	}
}
