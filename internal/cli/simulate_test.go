package cli

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mkarras/pinlabel/pkg/geom"
	"github.com/mkarras/pinlabel/pkg/view"
)

func waitForPick(t *testing.T, last func() string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for last() == "" {
		if time.Now().After(deadline) {
			t.Fatal("pick never completed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return last()
}

func TestSimulatePickerReportsCenterHit(t *testing.T) {
	// Zoom 10 is 1 px per map unit with the map origin at the viewport
	// center, so a graphic at (0,0) projects to (400,300).
	v := view.NewMemoryView(800, 600, 10)
	layer := view.NewMemoryLayer("pins", "Pins", 0)
	layer.Add(view.NewMemoryGraphic(view.Attributes{
		IsLabel:  true,
		ObjectID: "pin-0",
	}, 0, 0, view.Symbol{Text: "Harbor", FontSize: 12}))
	v.AddLayer(layer)

	request, last := newSimulatePicker(v, nil)
	request(context.Background(), geom.Point{X: 400, Y: 300})

	if got := waitForPick(t, last); got != "pick: Harbor" {
		t.Errorf("pick result = %q, want %q", got, "pick: Harbor")
	}
}

func TestSimulatePickerReportsMiss(t *testing.T) {
	v := view.NewMemoryView(800, 600, 10)
	layer := view.NewMemoryLayer("pins", "Pins", 0)
	layer.Add(view.NewMemoryGraphic(view.Attributes{
		IsLabel:  true,
		ObjectID: "pin-0",
	}, 0, 0, view.Symbol{Text: "Harbor", FontSize: 12}))
	v.AddLayer(layer)

	request, last := newSimulatePicker(v, nil)
	request(context.Background(), geom.Point{X: 10, Y: 10})

	if got := waitForPick(t, last); got != "pick: nothing" {
		t.Errorf("pick result = %q, want %q", got, "pick: nothing")
	}
}

func TestSimulateModelPickKey(t *testing.T) {
	picked := false
	m := simulateModel{
		view:     view.NewMemoryView(800, 600, 10),
		layer:    view.NewMemoryLayer("pins", "Pins", 0),
		stats:    nil,
		pick:     func() { picked = true },
		pickInfo: func() string { return "" },
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	if !picked {
		t.Error("p key should issue a pick request")
	}
}
