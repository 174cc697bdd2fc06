package cli

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mkarras/pinlabel/pkg/geom"
	"github.com/mkarras/pinlabel/pkg/pass"
	"github.com/mkarras/pinlabel/pkg/scheduler"
	"github.com/mkarras/pinlabel/pkg/tracker"
	"github.com/mkarras/pinlabel/pkg/view"
)

// simulateCommand creates the simulate command: an interactive in-memory map
// session that exercises the full placement loop.
func (c *CLI) simulateCommand() *cobra.Command {
	var (
		pins     int
		seed     int64
		throttle int
		onlyZoom bool
	)
	if c.Config.Scheduler.ThrottleMS > 0 {
		throttle = c.Config.Scheduler.ThrottleMS
	}
	onlyZoom = c.Config.Scheduler.OnlyWhenZooming

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run an interactive in-memory map session",
		Long: `Run an interactive in-memory map session.

The simulate command seeds an in-memory map with random pins and runs the
full placement loop against it: pan and zoom events are debounced by the
scheduler, each settled burst triggers one layout pass, and the resulting
placements are drawn in the terminal.

Keys: arrows or hjkl pan, +/- zoom, r forces a relayout, q quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSimulate(cmd.Context(), simulateOptions{
				pins:     pins,
				seed:     seed,
				throttle: time.Duration(throttle) * time.Millisecond,
				onlyZoom: onlyZoom,
			})
		},
	}

	cmd.Flags().IntVar(&pins, "pins", 24, "number of random pins to seed")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed for pin placement")
	cmd.Flags().IntVar(&throttle, "throttle", throttle, "debounce delay in milliseconds (0 for default)")
	cmd.Flags().BoolVar(&onlyZoom, "only-zoom", onlyZoom, "relayout on zoom changes only, not pans")

	return cmd
}

type simulateOptions struct {
	pins     int
	seed     int64
	throttle time.Duration
	onlyZoom bool
}

// runSimulate wires the view, tracker, and scheduler together and hands the
// session to bubbletea.
func (c *CLI) runSimulate(ctx context.Context, opts simulateOptions) error {
	v := view.NewMemoryView(simViewportW, simViewportH, 10)
	layer := view.NewMemoryLayer("pins", "Pins", c.Config.Layout.MinZoom)
	seedPins(layer, opts.pins, opts.seed)
	v.AddLayer(layer)

	tr := tracker.New(c.Logger)
	tr.Attach(v)
	defer tr.Detach()

	var mu sync.Mutex
	var lastStats pass.Stats
	var passCount int

	sched := scheduler.New(func(passCtx context.Context) error {
		stats, err := pass.Run(passCtx, v, tr, pass.Options{
			MaxLabelsPerLayer: c.Config.Scheduler.MaxPerLayer,
			CollisionBuffer:   c.Config.Layout.Padding,
			Logger:            c.Logger,
		})
		mu.Lock()
		lastStats = stats
		passCount++
		mu.Unlock()
		return err
	}, scheduler.Options{
		ThrottleDelay:     opts.throttle,
		OnlyWhenZooming:   opts.onlyZoom,
		MaxLabelsPerLayer: c.Config.Scheduler.MaxPerLayer,
		Logger:            c.Logger,
	})
	sched.Start(ctx, v)
	defer sched.Stop()

	request, lastPick := newSimulatePicker(v, c.Logger)

	model := simulateModel{
		view:  v,
		layer: layer,
		stats: func() (pass.Stats, int) {
			mu.Lock()
			defer mu.Unlock()
			return lastStats, passCount
		},
		pick: func() {
			request(ctx, geom.Point{X: simViewportW / 2, Y: simViewportH / 2})
		},
		pickInfo: lastPick,
	}

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Viewport dimensions in pixels; the terminal grid samples this down.
const (
	simViewportW = 800.0
	simViewportH = 600.0

	simGridW = 80
	simGridH = 24
)

// seedPins fills a layer with deterministic random label pins.
func seedPins(layer *view.MemoryLayer, count int, seed int64) {
	names := []string{
		"Harbor", "Summit", "Mill", "Crossing", "Meadow", "Quarry",
		"Landing", "Ridge", "Hollow", "Junction", "Point", "Falls",
	}
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%s %d", names[rng.Intn(len(names))], i+1)
		g := view.NewMemoryGraphic(view.Attributes{
			IsLabel:  true,
			ObjectID: fmt.Sprintf("pin-%d", i),
			Priority: rng.Intn(10),
		},
			(rng.Float64()-0.5)*simViewportW,
			(rng.Float64()-0.5)*simViewportH,
			view.Symbol{Text: name, FontSize: 12})
		layer.Add(g)
	}
}

// newSimulatePicker wires the async pick chain for a session: requests go
// through the view's picker and the newest completion is kept for the status
// bar. Stale completions are discarded by the picker's generation counter.
func newSimulatePicker(p view.Picker, logger *log.Logger) (request func(context.Context, geom.Point), last func() string) {
	var mu sync.Mutex
	var latest string

	picker := pass.NewAsyncPicker(p, func(at geom.Point, hits []view.Graphic) {
		mu.Lock()
		defer mu.Unlock()
		if len(hits) == 0 {
			latest = "pick: nothing"
			return
		}
		latest = "pick: " + hits[0].Symbol().Text
	}, logger)

	return picker.Request, func() string {
		mu.Lock()
		defer mu.Unlock()
		return latest
	}
}

// =============================================================================
// simulateModel - bubbletea model
// =============================================================================

type tickMsg time.Time

type simulateModel struct {
	view     *view.MemoryView
	layer    *view.MemoryLayer
	stats    func() (pass.Stats, int)
	pick     func()
	pickInfo func() string
}

func (m simulateModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m simulateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	const panStep = 40.0
	switch msg := msg.(type) {
	case tickMsg:
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.view.Pan(-panStep, 0)
		case "right", "l":
			m.view.Pan(panStep, 0)
		case "up", "k":
			m.view.Pan(0, -panStep)
		case "down", "j":
			m.view.Pan(0, panStep)
		case "+", "=":
			m.view.SetZoom(m.view.Viewport().Zoom + 1)
		case "-":
			m.view.SetZoom(m.view.Viewport().Zoom - 1)
		case "p":
			if m.pick != nil {
				m.pick()
			}
		case "r":
			// A zero pan still counts as an extent change and schedules a pass.
			m.view.Pan(0, 0)
		}
	}
	return m, nil
}

func (m simulateModel) View() string {
	grid := make([][]rune, simGridH)
	for i := range grid {
		grid[i] = make([]rune, simGridW)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	proj := m.view.Projector()
	visible := 0
	total := 0
	for _, g := range m.layer.Graphics() {
		total++
		mx, my := g.MapPoint()
		p, ok := proj.ToScreen(mx, my)
		if !ok {
			continue
		}
		col := int(p.X / simViewportW * simGridW)
		row := int(p.Y / simViewportH * simGridH)
		if row < 0 || row >= simGridH || col < 0 || col >= simGridW {
			continue
		}
		grid[row][col] = '•'
		if g.Visible() {
			visible++
			drawText(grid, row, col+1, g.Symbol().Text)
		}
	}

	var b strings.Builder
	for _, line := range grid {
		b.WriteString(string(line))
		b.WriteByte('\n')
	}

	stats, passes := m.stats()
	vp := m.view.Viewport()
	status := fmt.Sprintf(" zoom %.0f · %d/%d labels · %d passes · last %s ",
		vp.Zoom, visible, total, passes, stats.Duration.Round(time.Millisecond))
	if m.pickInfo != nil {
		if info := m.pickInfo(); info != "" {
			status += "· " + info + " "
		}
	}
	help := " arrows pan · +/- zoom · p pick center · r relayout · q quit "

	statusBar := lipgloss.NewStyle().Foreground(colorWhite).Background(colorDim).Render(status)
	helpBar := StyleDim.Render(help)
	return b.String() + statusBar + "\n" + helpBar
}

// drawText writes a label's text into the grid, clipped to the row.
func drawText(grid [][]rune, row, col int, text string) {
	for _, r := range text {
		if col >= simGridW {
			return
		}
		if col >= 0 && row >= 0 && row < simGridH {
			grid[row][col] = r
		}
		col++
	}
}
