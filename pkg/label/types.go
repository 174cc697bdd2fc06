package label

import (
	"math"

	"github.com/mkarras/pinlabel/pkg/errors"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Text metric approximation factors. The engine never shapes text; a label's
// bounding box is estimated from rune count and font size alone.
const (
	// WidthFactor approximates average glyph advance as a fraction of font size.
	WidthFactor = 0.6

	// HeightFactor approximates line height as a multiple of font size.
	HeightFactor = 1.2
)

// Default layout values.
const (
	// DefaultFontSize is used when a candidate carries no font size.
	DefaultFontSize = 12.0

	// DefaultMaxVisibleLabels caps accepted labels per layout call when the
	// caller does not choose a limit.
	DefaultMaxVisibleLabels = 100

	// DefaultPadding is the collision buffer around each label box in pixels.
	DefaultPadding = 2.0
)

// =============================================================================
// Candidate - Engine Input
// =============================================================================

// Candidate is one label considered for placement. Candidates are immutable
// inputs to the engine; IDs must be unique within a single layout call.
type Candidate struct {
	ID       string  `json:"id"`
	ScreenX  float64 `json:"screen_x"`
	ScreenY  float64 `json:"screen_y"`
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size,omitempty"`
	Priority int     `json:"priority,omitempty"`

	// ParentID optionally references the feature this label annotates.
	// The engine never dereferences it; emphasis and click handling do.
	ParentID string `json:"parent_id,omitempty"`
}

// Malformed reports whether the candidate cannot be placed: non-finite
// coordinates or missing text. Malformed candidates are skipped, not fatal.
func (c Candidate) Malformed() bool {
	if math.IsNaN(c.ScreenX) || math.IsInf(c.ScreenX, 0) {
		return true
	}
	if math.IsNaN(c.ScreenY) || math.IsInf(c.ScreenY, 0) {
		return true
	}
	return c.Text == ""
}

// fontSize returns the effective font size, falling back to the default for
// unset or degenerate values.
func (c Candidate) fontSize() float64 {
	if c.FontSize <= 0 || math.IsNaN(c.FontSize) || math.IsInf(c.FontSize, 0) {
		return DefaultFontSize
	}
	return c.FontSize
}

// =============================================================================
// Config - Engine Configuration
// =============================================================================

// Config controls one layout call.
type Config struct {
	ViewportWidth  float64 `json:"viewport_width"`
	ViewportHeight float64 `json:"viewport_height"`

	// AvoidCollisions enables the collision search. When false every
	// candidate takes the first offset unconditionally.
	AvoidCollisions bool `json:"avoid_collisions"`

	// MaxVisibleLabels is the total number of labels the engine may accept.
	// Zero accepts none; use SetDefaults for the standard cap.
	MaxVisibleLabels int `json:"max_visible_labels"`

	// Padding inflates each label's bounding box on all sides before the
	// collision and bounds checks.
	Padding float64 `json:"padding"`
}

// SetDefaults fills unset fields with the standard values.
// Idempotent; does not touch fields the caller already chose.
func (c *Config) SetDefaults() {
	if c.MaxVisibleLabels == 0 {
		c.MaxVisibleLabels = DefaultMaxVisibleLabels
	}
	if c.Padding == 0 {
		c.Padding = DefaultPadding
	}
}

// Validate checks the config invariants.
func (c Config) Validate() error {
	if !(c.ViewportWidth > 0) || !(c.ViewportHeight > 0) {
		return errors.New(errors.ErrCodeInvalidConfig,
			"viewport dimensions must be positive: %vx%v", c.ViewportWidth, c.ViewportHeight)
	}
	if c.MaxVisibleLabels < 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"max visible labels cannot be negative: %d", c.MaxVisibleLabels)
	}
	if c.Padding < 0 || math.IsNaN(c.Padding) {
		return errors.New(errors.ErrCodeInvalidConfig,
			"padding cannot be negative: %v", c.Padding)
	}
	return nil
}

// =============================================================================
// Placement - Engine Output
// =============================================================================

// Placement is the engine's decision for one candidate: an offset from the
// anchor and a visibility flag. Every layout call emits exactly one placement
// per input candidate, with the same ID set as the input.
type Placement struct {
	ID      string  `json:"id"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Visible bool    `json:"visible"`
}
