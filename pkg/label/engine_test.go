package label

import (
	"math"
	"reflect"
	"testing"
)

// testConfig returns a config large enough that a handful of small labels
// place without interference unless a test arranges otherwise.
func testConfig() Config {
	return Config{
		ViewportWidth:    1000,
		ViewportHeight:   1000,
		AvoidCollisions:  true,
		MaxVisibleLabels: 100,
		Padding:          2,
	}
}

func placementByID(t *testing.T, ps []Placement, id string) Placement {
	t.Helper()
	for _, p := range ps {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("no placement with id %q", id)
	return Placement{}
}

func countVisible(ps []Placement) int {
	n := 0
	for _, p := range ps {
		if p.Visible {
			n++
		}
	}
	return n
}

func TestLayoutDeterminism(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", ScreenX: 100, ScreenY: 100, Text: "Alpha", FontSize: 12, Priority: 3},
		{ID: "b", ScreenX: 105, ScreenY: 102, Text: "Beta", FontSize: 12, Priority: 1},
		{ID: "c", ScreenX: 500, ScreenY: 500, Text: "Gamma", FontSize: 14, Priority: 2},
	}
	cfg := testConfig()

	first := Layout(candidates, cfg)
	second := Layout(candidates, cfg)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Layout calls differ:\n first: %+v\nsecond: %+v", first, second)
	}
}

func TestLayoutCompleteness(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
	}{
		{"empty input", nil},
		{
			"single candidate",
			[]Candidate{{ID: "a", ScreenX: 50, ScreenY: 50, Text: "x", FontSize: 10}},
		},
		{
			"mixed malformed and valid",
			[]Candidate{
				{ID: "a", ScreenX: 50, ScreenY: 50, Text: "x", FontSize: 10},
				{ID: "b", ScreenX: math.NaN(), ScreenY: 50, Text: "y", FontSize: 10},
				{ID: "c", ScreenX: 70, ScreenY: 90, Text: "", FontSize: 10},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Layout(tt.candidates, testConfig())
			if len(got) != len(tt.candidates) {
				t.Fatalf("got %d placements for %d candidates", len(got), len(tt.candidates))
			}
			ids := make(map[string]bool, len(got))
			for _, p := range got {
				ids[p.ID] = true
			}
			for _, c := range tt.candidates {
				if !ids[c.ID] {
					t.Errorf("missing placement for candidate %q", c.ID)
				}
			}
		})
	}
}

func TestLayoutPriorityOrdering(t *testing.T) {
	// Two overlapping candidates at the same anchor: the priority-5 one must
	// win its best (above) offset and the priority-1 one must be displaced or
	// hidden, never the reverse.
	candidates := []Candidate{
		{ID: "low", ScreenX: 100, ScreenY: 100, Text: "loser", FontSize: 12, Priority: 1},
		{ID: "high", ScreenX: 100, ScreenY: 100, Text: "winner", FontSize: 12, Priority: 5},
	}
	cfg := testConfig()

	placements := Layout(candidates, cfg)

	high := placementByID(t, placements, "high")
	if !high.Visible {
		t.Fatal("high-priority candidate should always be visible")
	}
	w, h := boxFor(candidates[1])
	wantDX, wantDY := offsetFor(slotAbove, w, h, cfg.Padding)
	if high.OffsetX != wantDX || high.OffsetY != wantDY {
		t.Errorf("high-priority offset = (%v,%v), want best offset (%v,%v)",
			high.OffsetX, high.OffsetY, wantDX, wantDY)
	}

	low := placementByID(t, placements, "low")
	if low.Visible {
		lw, lh := boxFor(candidates[0])
		bestDX, bestDY := offsetFor(slotAbove, lw, lh, cfg.Padding)
		if low.OffsetX == bestDX && low.OffsetY == bestDY {
			t.Error("low-priority candidate took the contested best offset")
		}
	}
}

func TestLayoutPriorityTiesKeepInputOrder(t *testing.T) {
	// Equal priorities at the same anchor: the first input candidate wins the
	// first offset. Stability is part of the engine contract.
	candidates := []Candidate{
		{ID: "first", ScreenX: 200, ScreenY: 200, Text: "aaaa", FontSize: 12, Priority: 2},
		{ID: "second", ScreenX: 200, ScreenY: 200, Text: "bbbb", FontSize: 12, Priority: 2},
	}
	cfg := testConfig()

	placements := Layout(candidates, cfg)

	if placements[0].ID != "first" {
		t.Errorf("tie broken against input order: first placement is %q", placements[0].ID)
	}
	w, h := boxFor(candidates[0])
	wantDX, wantDY := offsetFor(slotAbove, w, h, cfg.Padding)
	first := placementByID(t, placements, "first")
	if !first.Visible || first.OffsetX != wantDX || first.OffsetY != wantDY {
		t.Errorf("first candidate did not win the best offset: %+v", first)
	}
}

func TestLayoutBoundsRespect(t *testing.T) {
	cfg := Config{
		ViewportWidth:    300,
		ViewportHeight:   200,
		AvoidCollisions:  true,
		MaxVisibleLabels: 50,
		Padding:          2,
	}
	candidates := []Candidate{
		{ID: "corner", ScreenX: 2, ScreenY: 2, Text: "Corner", FontSize: 12, Priority: 5},
		{ID: "edge", ScreenX: 298, ScreenY: 100, Text: "Edge", FontSize: 12, Priority: 4},
		{ID: "middle", ScreenX: 150, ScreenY: 100, Text: "Middle", FontSize: 12, Priority: 3},
		{ID: "offscreen", ScreenX: 600, ScreenY: 100, Text: "Gone", FontSize: 12, Priority: 2},
	}

	for i, p := range Layout(candidates, cfg) {
		if !p.Visible {
			continue
		}
		var c Candidate
		for _, cand := range candidates {
			if cand.ID == p.ID {
				c = cand
			}
		}
		w, h := boxFor(c)
		box := boxAt(c, p, w, h, cfg.Padding)
		if !box.Within(cfg.ViewportWidth, cfg.ViewportHeight) {
			t.Errorf("placement %d (%s) box %+v escapes %vx%v viewport",
				i, p.ID, box, cfg.ViewportWidth, cfg.ViewportHeight)
		}
	}
}

func TestLayoutCapRespect(t *testing.T) {
	// Twelve well-separated candidates, cap of 5: exactly 5 visible.
	cfg := testConfig()
	cfg.MaxVisibleLabels = 5

	var candidates []Candidate
	for i := 0; i < 12; i++ {
		candidates = append(candidates, Candidate{
			ID:      string(rune('a' + i)),
			ScreenX: 80 * float64(i%4),
			ScreenY: 100 + 200*float64(i/4),
			Text:    "pt",
			FontSize: 10,
			Priority: 12 - i,
		})
	}
	// Shift anchors away from the viewport edge so every box fits.
	for i := range candidates {
		candidates[i].ScreenX += 100
	}

	placements := Layout(candidates, cfg)
	if got := countVisible(placements); got != 5 {
		t.Errorf("visible = %d, want exactly 5", got)
	}
}

func TestLayoutCapZeroHidesEverything(t *testing.T) {
	cfg := testConfig()
	cfg.MaxVisibleLabels = 0

	placements := Layout([]Candidate{
		{ID: "a", ScreenX: 100, ScreenY: 100, Text: "x", FontSize: 10},
	}, cfg)
	if countVisible(placements) != 0 {
		t.Error("cap of zero should accept no labels")
	}
}

func TestLayoutMalformedResilience(t *testing.T) {
	candidates := []Candidate{
		{ID: "nan", ScreenX: math.NaN(), ScreenY: 100, Text: "Bad", FontSize: 12, Priority: 9},
		{ID: "inf", ScreenX: 100, ScreenY: math.Inf(1), Text: "Bad", FontSize: 12, Priority: 8},
		{ID: "notext", ScreenX: 100, ScreenY: 100, Text: "", FontSize: 12, Priority: 7},
		{ID: "good", ScreenX: 300, ScreenY: 300, Text: "Fine", FontSize: 12, Priority: 1},
	}

	cfg := testConfig()
	placements := Layout(candidates, cfg)

	if len(placements) != len(candidates) {
		t.Fatalf("got %d placements, want %d", len(placements), len(candidates))
	}
	// Hidden placements all carry the above-anchor default offset, malformed
	// ones included. Mirror the engine's float operations exactly.
	var fontSize float64 = 12
	wantDY := -(fontSize*HeightFactor/2 + cfg.Padding)
	for _, id := range []string{"nan", "inf", "notext"} {
		p := placementByID(t, placements, id)
		if p.Visible {
			t.Errorf("malformed candidate %q was placed", id)
		}
		if p.OffsetX != 0 || p.OffsetY != wantDY {
			t.Errorf("malformed candidate %q offset = (%v,%v), want (0,%v)",
				id, p.OffsetX, p.OffsetY, wantDY)
		}
		if math.IsNaN(p.OffsetX) || math.IsNaN(p.OffsetY) {
			t.Errorf("malformed candidate %q produced a non-finite offset", id)
		}
	}
	if !placementByID(t, placements, "good").Visible {
		t.Error("valid sibling of malformed candidates should place normally")
	}
}

func TestLayoutNoCollisionAvoidance(t *testing.T) {
	// With avoidance off, overlapping candidates all take the default offset.
	candidates := []Candidate{
		{ID: "a", ScreenX: 100, ScreenY: 100, Text: "one", FontSize: 12, Priority: 2},
		{ID: "b", ScreenX: 100, ScreenY: 100, Text: "two", FontSize: 12, Priority: 1},
	}
	cfg := testConfig()
	cfg.AvoidCollisions = false

	placements := Layout(candidates, cfg)
	if countVisible(placements) != 2 {
		t.Fatal("all candidates should be visible with collision avoidance off")
	}
	for _, p := range placements {
		if p.OffsetY >= 0 {
			t.Errorf("placement %s should use the above offset, got (%v,%v)",
				p.ID, p.OffsetX, p.OffsetY)
		}
	}
}

func TestLayoutCrowdedAnchorHidesOverflow(t *testing.T) {
	// Five candidates on one anchor. The above and below boxes touch at the
	// anchor without overlapping, but the side boxes overlap both, so a
	// shared anchor fits exactly two labels and the rest hide in priority
	// order.
	var candidates []Candidate
	for i := 0; i < 5; i++ {
		candidates = append(candidates, Candidate{
			ID:       string(rune('a' + i)),
			ScreenX:  500,
			ScreenY:  500,
			Text:     "pin",
			FontSize: 12,
			Priority: 5 - i,
		})
	}

	placements := Layout(candidates, testConfig())

	if got := countVisible(placements); got != 2 {
		t.Errorf("visible = %d, want 2 (above and below slots)", got)
	}
	if !placementByID(t, placements, "a").Visible || !placementByID(t, placements, "b").Visible {
		t.Error("the two highest-priority candidates should win the available slots")
	}
	for _, id := range []string{"c", "d", "e"} {
		if placementByID(t, placements, id).Visible {
			t.Errorf("candidate %q should be hidden", id)
		}
	}
}

func TestLayoutInvalidConfigDegrades(t *testing.T) {
	// Zero-size viewport: engine must not panic and must emit one hidden
	// placement per candidate.
	placements := Layout([]Candidate{
		{ID: "a", ScreenX: 10, ScreenY: 10, Text: "x", FontSize: 10},
	}, Config{})
	if len(placements) != 1 || placements[0].Visible {
		t.Errorf("invalid config should degrade to hidden placements, got %+v", placements)
	}
}

// boxAt reconstructs the padded box the engine reserved for a placement.
func boxAt(c Candidate, p Placement, w, h, pad float64) rectLike {
	left := c.ScreenX + p.OffsetX - w/2 - pad
	top := c.ScreenY + p.OffsetY - h/2 - pad
	return rectLike{left, top, left + w + 2*pad, top + h + 2*pad}
}

type rectLike struct{ Left, Top, Right, Bottom float64 }

func (r rectLike) Within(width, height float64) bool {
	return r.Left >= 0 && r.Top >= 0 && r.Right <= width && r.Bottom <= height
}
