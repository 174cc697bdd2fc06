package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkarras/pinlabel/pkg/label"
)

// layoutCommand creates the layout command for computing label placements.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	cfg := label.Config{
		ViewportWidth:    c.Config.Layout.ViewportWidth,
		ViewportHeight:   c.Config.Layout.ViewportHeight,
		AvoidCollisions:  !c.Config.Layout.NoCollisions,
		MaxVisibleLabels: c.Config.Layout.MaxVisible,
		Padding:          c.Config.Layout.Padding,
	}

	cmd := &cobra.Command{
		Use:   "layout [candidates.json]",
		Short: "Compute collision-free label placements for a candidate set",
		Long: `Compute collision-free label placements for a candidate set.

The layout command takes a candidates.json file describing label candidates
(screen anchor, text, font size, priority) and computes an offset placement
for each one so that visible labels stay inside the viewport without
overlapping. Candidates the layout cannot fit are marked hidden.

The candidate file may carry its own layout config; flags set on the command
line override it. Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), cmd, args[0], cfg, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.result.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	cmd.Flags().Float64Var(&cfg.ViewportWidth, "width", cfg.ViewportWidth, "viewport width in pixels")
	cmd.Flags().Float64Var(&cfg.ViewportHeight, "height", cfg.ViewportHeight, "viewport height in pixels")
	cmd.Flags().Float64Var(&cfg.Padding, "padding", cfg.Padding, "padding between label boxes in pixels")
	cmd.Flags().IntVar(&cfg.MaxVisibleLabels, "max-visible", cfg.MaxVisibleLabels, "maximum number of visible labels")
	cmd.Flags().BoolVar(&cfg.AvoidCollisions, "avoid-collisions", cfg.AvoidCollisions, "hide labels that would overlap")

	return cmd
}

// runLayout loads the candidate set, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, cmd *cobra.Command, input string, cfg label.Config, output string, noCache bool) error {
	set, err := label.ReadCandidateSetFile(input)
	if err != nil {
		return fmt.Errorf("load candidates %s: %w", input, err)
	}
	applyConfigOverrides(cmd, &set.Config, cfg)

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Cache.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, cacheHit, err := runner.Layout(ctx, set)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".result.json"
	}

	if err := label.WriteResultFile(*result, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Visible, result.Hidden, cacheHit)

	return nil
}

// applyConfigOverrides layers CLI config on top of a document config. The
// document provides the base; config-file values fill zero fields, and
// explicitly set flags win outright.
func applyConfigOverrides(cmd *cobra.Command, base *label.Config, flags label.Config) {
	if base.ViewportWidth == 0 && flags.ViewportWidth != 0 {
		base.ViewportWidth = flags.ViewportWidth
	}
	if base.ViewportHeight == 0 && flags.ViewportHeight != 0 {
		base.ViewportHeight = flags.ViewportHeight
	}
	if base.MaxVisibleLabels == 0 && flags.MaxVisibleLabels != 0 {
		base.MaxVisibleLabels = flags.MaxVisibleLabels
	}
	if base.Padding == 0 && flags.Padding != 0 {
		base.Padding = flags.Padding
	}

	if cmd.Flags().Changed("width") {
		base.ViewportWidth = flags.ViewportWidth
	}
	if cmd.Flags().Changed("height") {
		base.ViewportHeight = flags.ViewportHeight
	}
	if cmd.Flags().Changed("max-visible") {
		base.MaxVisibleLabels = flags.MaxVisibleLabels
	}
	if cmd.Flags().Changed("padding") {
		base.Padding = flags.Padding
	}

	// JSON cannot distinguish an absent avoid_collisions from false, so the
	// flag (which defaults to on) decides unless the document opted in.
	if cmd.Flags().Changed("avoid-collisions") || !base.AvoidCollisions {
		base.AvoidCollisions = flags.AvoidCollisions
	}
}
