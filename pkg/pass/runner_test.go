package pass

import (
	"context"
	"testing"

	"github.com/mkarras/pinlabel/pkg/cache"
	"github.com/mkarras/pinlabel/pkg/errors"
	"github.com/mkarras/pinlabel/pkg/label"
)

func sampleSet() label.CandidateSet {
	return label.CandidateSet{
		Config: label.Config{ViewportWidth: 800, ViewportHeight: 600, AvoidCollisions: true},
		Candidates: []label.Candidate{
			{ID: "a", ScreenX: 400, ScreenY: 300, Text: "Alpha", FontSize: 12, Priority: 5},
			{ID: "b", ScreenX: 100, ScreenY: 100, Text: "Beta", FontSize: 12, Priority: 3},
		},
	}
}

func TestRunnerLayoutCaches(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(c, nil, nil)

	first, hit, err := r.Layout(ctx, sampleSet())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if hit {
		t.Error("first run should be a cache miss")
	}
	if first.Visible != 2 {
		t.Errorf("visible = %d, want 2", first.Visible)
	}

	second, hit, err := r.Layout(ctx, sampleSet())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if !hit {
		t.Error("second identical run should be a cache hit")
	}
	if len(second.Placements) != len(first.Placements) {
		t.Errorf("cached result has %d placements, want %d",
			len(second.Placements), len(first.Placements))
	}
	for i := range first.Placements {
		if second.Placements[i] != first.Placements[i] {
			t.Errorf("placement %d differs: %+v vs %+v",
				i, second.Placements[i], first.Placements[i])
		}
	}
}

func TestRunnerLayoutConfigChangesKey(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(c, nil, nil)

	if _, _, err := r.Layout(ctx, sampleSet()); err != nil {
		t.Fatalf("Layout: %v", err)
	}

	changed := sampleSet()
	changed.Config.Padding = 8
	_, hit, err := r.Layout(ctx, changed)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if hit {
		t.Error("changed config must not reuse the cached layout")
	}
}

func TestRunnerLayoutInvalidConfig(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	set := sampleSet()
	set.Config.ViewportWidth = -1

	_, _, err := r.Layout(context.Background(), set)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("want INVALID_CONFIG, got %v", err)
	}
}

func TestRunnerNilDependencies(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Fatal("NewRunner should fill nil dependencies")
	}

	result, hit, err := r.Layout(context.Background(), sampleSet())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if hit {
		t.Error("null cache never hits")
	}
	if result.Visible != 2 {
		t.Errorf("visible = %d, want 2", result.Visible)
	}
}
