// Package cache provides content-addressed caching for layout results.
//
// Layout passes over identical candidate sets are deterministic, so the
// result of an expensive collision layout can be keyed by a hash of its
// inputs and reused. The CLI uses a file-backed cache under the user cache
// directory; library consumers that do not want caching use the null cache.
package cache

import (
	"context"
	"time"
)

// TTL values for cached content.
const (
	// TTLLayout is the lifetime of cached layout results. Layouts are a
	// pure function of their inputs, so this is generous.
	TTLLayout = 7 * 24 * time.Hour

	// TTLEmphasis is the lifetime of cached emphasis summaries.
	TTLEmphasis = 24 * time.Hour
)

// Cache is the storage interface for cached byte payloads.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was found and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a time-to-live. A non-positive ttl stores
	// the value without expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Keyer generates cache keys for the different cached content types.
// Keeping key construction behind an interface lets callers scope or
// namespace keys without touching the cache implementation.
type Keyer interface {
	// LayoutKey generates a key for a layout result. setHash is the
	// content hash of the candidate set; opts captures the layout
	// configuration that affects the result.
	LayoutKey(setHash string, opts LayoutKeyOpts) string

	// EmphasisKey generates a key for an emphasis summary.
	EmphasisKey(setHash string, opts EmphasisKeyOpts) string
}

// LayoutKeyOpts captures the configuration inputs to a layout key.
type LayoutKeyOpts struct {
	ViewportWidth   float64 `json:"viewport_width"`
	ViewportHeight  float64 `json:"viewport_height"`
	AvoidCollisions bool    `json:"avoid_collisions"`
	MaxVisible      int     `json:"max_visible"`
	Padding         float64 `json:"padding"`
}

// EmphasisKeyOpts captures the configuration inputs to an emphasis key.
type EmphasisKeyOpts struct {
	XMin    float64 `json:"xmin"`
	YMin    float64 `json:"ymin"`
	XMax    float64 `json:"xmax"`
	YMax    float64 `json:"ymax"`
	Boost   float64 `json:"boost"`
	Opacity float64 `json:"opacity"`

	// Palette is the recolor palette as hex strings; a different palette
	// produces a different emphasized scene.
	Palette []string `json:"palette,omitempty"`
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for a layout result.
func (k *DefaultKeyer) LayoutKey(setHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", setHash, opts)
}

// EmphasisKey generates a key for an emphasis summary.
func (k *DefaultKeyer) EmphasisKey(setHash string, opts EmphasisKeyOpts) string {
	return hashKey("emphasis", setHash, opts)
}
