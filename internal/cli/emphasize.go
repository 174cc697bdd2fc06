package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkarras/pinlabel/pkg/cache"
	"github.com/mkarras/pinlabel/pkg/emphasis"
	"github.com/mkarras/pinlabel/pkg/geom"
	"github.com/mkarras/pinlabel/pkg/observability"
	"github.com/mkarras/pinlabel/pkg/view"
)

// sceneLabel is the file format for one label in an emphasize scene. The
// coordinates are map units, matching the extent flags.
type sceneLabel struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size,omitempty"`
	Priority int     `json:"priority,omitempty"`
	ParentID string  `json:"parent_id,omitempty"`
	Visible  *bool   `json:"visible,omitempty"`
	Opacity  float64 `json:"opacity,omitempty"`
}

// cachedEmphasis is the cache payload for one emphasize run: the emphasized
// scene plus its stats, keyed by input hash and options.
type cachedEmphasis struct {
	Labels []sceneLabel   `json:"labels"`
	Stats  emphasis.Stats `json:"stats"`
}

// emphasizeCommand creates the emphasize command.
func (c *CLI) emphasizeCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		xmin    float64
		ymin    float64
		xmax    float64
		ymax    float64
		boost   = c.Config.Emphasis.Boost
		opacity = c.Config.Emphasis.OutsideOpacity
		palette = c.Config.Emphasis.Palette
	)
	if boost == 0 {
		boost = emphasis.DefaultPriorityBoost
	}

	cmd := &cobra.Command{
		Use:   "emphasize [labels.json]",
		Short: "Boost and fade labels relative to a map extent",
		Long: `Boost and fade labels relative to a map extent.

The emphasize command takes a labels.json file with label positions in map
units and an extent given by --xmin/--ymin/--xmax/--ymax. Labels inside the
extent (bounds inclusive) are forced visible and their priority is multiplied
by the boost factor; labels outside keep their visibility but are faded to
the outside opacity. A boost of 0 (or less) leaves priorities untouched.

The boost is multiplicative, so emphasizing the same file repeatedly
compounds the priorities. Results are cached per input file and option set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			colors, err := parsePalette(palette)
			if err != nil {
				return err
			}
			extent := geom.Extent{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}
			opts := emphasis.Options{
				PriorityBoost:  boost,
				OutsideOpacity: opacity,
				Palette:        colors,
			}
			return c.runEmphasize(cmd.Context(), args[0], extent, opts, palette, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.emphasized.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&xmin, "xmin", 0, "extent minimum x (map units)")
	cmd.Flags().Float64Var(&ymin, "ymin", 0, "extent minimum y (map units)")
	cmd.Flags().Float64Var(&xmax, "xmax", 0, "extent maximum x (map units)")
	cmd.Flags().Float64Var(&ymax, "ymax", 0, "extent maximum y (map units)")
	cmd.Flags().Float64Var(&boost, "boost", boost, "priority multiplier for labels inside the extent (0 disables)")
	cmd.Flags().Float64Var(&opacity, "opacity", opacity, "opacity for labels outside the extent")
	cmd.Flags().StringSliceVar(&palette, "palette", palette, "hex colors (#RRGGBB) for recoloring inside labels")
	_ = cmd.MarkFlagRequired("xmax")
	_ = cmd.MarkFlagRequired("ymax")

	return cmd
}

// runEmphasize loads the scene, applies the emphasis (or replays a cached
// run), and writes the scene back with updated priorities, visibility, and
// opacity.
func (c *CLI) runEmphasize(ctx context.Context, input string, extent geom.Extent, opts emphasis.Options, palette []string, output string, noCache bool) error {
	labels, raw, err := readScene(input)
	if err != nil {
		return fmt.Errorf("load labels %s: %w", input, err)
	}

	store, err := newCache(noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	// Emphasis is a pure function of the input scene and options, so runs
	// are keyed by content hash in their own namespace.
	keyer := cache.NewScopedKeyer(nil, "emphasize:")
	key := keyer.EmphasisKey(cache.Hash(raw), cache.EmphasisKeyOpts{
		XMin:    extent.XMin,
		YMin:    extent.YMin,
		XMax:    extent.XMax,
		YMax:    extent.YMax,
		Boost:   opts.PriorityBoost,
		Opacity: opts.OutsideOpacity,
		Palette: palette,
	})

	var stats emphasis.Stats
	cacheHit := false
	if data, hit, err := store.Get(ctx, key); err == nil && hit {
		var cached cachedEmphasis
		if err := json.Unmarshal(data, &cached); err == nil {
			observability.Cache().OnCacheHit(ctx, "emphasis")
			labels, stats, cacheHit = cached.Labels, cached.Stats, true
		} else {
			// Corrupt entry: fall through and recompute.
			_ = store.Delete(ctx, key)
		}
	}

	if !cacheHit {
		observability.Cache().OnCacheMiss(ctx, "emphasis")

		graphics := make([]view.Graphic, len(labels))
		for i, sl := range labels {
			g := view.NewMemoryGraphic(view.Attributes{
				IsLabel:  true,
				ObjectID: sl.ID,
				ParentID: sl.ParentID,
				Priority: sl.Priority,
			}, sl.X, sl.Y, view.Symbol{
				Text:     sl.Text,
				FontSize: sl.FontSize,
				Color:    view.RGBA{A: sceneOpacity(sl)},
			})
			if sl.Visible != nil {
				g.SetVisible(*sl.Visible)
			}
			graphics[i] = g
		}

		tick := newProgress(c.Logger)
		stats, err = emphasis.Enhance(graphics, extent, opts)
		if err != nil {
			return fmt.Errorf("emphasize: %w", err)
		}
		tick.done(fmt.Sprintf("Emphasized %d of %d labels", stats.Enhanced, len(labels)))

		for i, g := range graphics {
			attrs := g.Attributes()
			visible := g.Visible()
			labels[i].Priority = attrs.Priority
			labels[i].Visible = &visible
			labels[i].Opacity = g.Symbol().Color.A
		}

		if data, err := json.Marshal(cachedEmphasis{Labels: labels, Stats: stats}); err == nil {
			if err := store.Set(ctx, key, data, cache.TTLEmphasis); err == nil {
				observability.Cache().OnCacheSet(ctx, "emphasis", len(data))
			}
		}
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".emphasized.json"
	}
	if err := writeScene(labels, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Emphasis complete")
	printFile(outputPath)
	printEmphasisStats(stats, cacheHit)

	return nil
}

// printEmphasisStats prints emphasis statistics with a cache marker.
func printEmphasisStats(stats emphasis.Stats, cached bool) {
	status := styleComputed.Render(iconFresh)
	if cached {
		status = styleCached.Render(iconCached)
	}
	printDetail("%d inside · %d outside · %d boosted · %s",
		stats.Inside, stats.Outside, stats.Enhanced, status)
}

// parsePalette converts "#RRGGBB" strings into symbol colors.
func parsePalette(hexes []string) ([]view.RGBA, error) {
	colors := make([]view.RGBA, 0, len(hexes))
	for _, h := range hexes {
		s := strings.TrimPrefix(strings.TrimSpace(h), "#")
		if len(s) != 6 {
			return nil, fmt.Errorf("palette color %q: want #RRGGBB", h)
		}
		n, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("palette color %q: %w", h, err)
		}
		colors = append(colors, view.RGBA{
			R: uint8(n >> 16),
			G: uint8(n >> 8),
			B: uint8(n),
			A: 1,
		})
	}
	return colors, nil
}

// sceneOpacity returns the label's stored opacity, defaulting to opaque.
func sceneOpacity(sl sceneLabel) float64 {
	if sl.Opacity == 0 {
		return 1
	}
	return sl.Opacity
}

func readScene(path string) ([]sceneLabel, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var labels []sceneLabel
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, nil, fmt.Errorf("unmarshal scene: %w", err)
	}
	return labels, data, nil
}

func writeScene(labels []sceneLabel, path string) error {
	data, err := json.MarshalIndent(labels, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
