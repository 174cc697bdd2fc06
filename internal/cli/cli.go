// Package cli implements the pinlabel command-line interface.
//
// This package provides commands for running label layouts over candidate
// sets, emphasizing labels against a map extent, simulating an interactive
// map session, and managing the layout result cache. The CLI is built using
// cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - layout: Compute collision-free label placements for a candidate set
//   - emphasize: Boost and fade labels relative to a map extent
//   - simulate: Run an interactive in-memory map session
//   - cache: Manage the layout result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mkarras/pinlabel/pkg/buildinfo"
	"github.com/mkarras/pinlabel/pkg/cache"
	"github.com/mkarras/pinlabel/pkg/pass"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pinlabel"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a new CLI instance with a default logger and the on-disk
// configuration applied.
func New(w io.Writer, level log.Level) *CLI {
	cfg, err := LoadConfig(DefaultConfigPath())
	c := &CLI{
		Logger: newLogger(w, level),
		Config: cfg,
	}
	if err != nil {
		c.Logger.Warn("ignoring unreadable config file", "error", err)
	}
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "pinlabel",
		Short:        "Pinlabel places map labels without collisions",
		Long:         `Pinlabel is a CLI tool for map label placement: it lays out label candidates so they stay inside the viewport without overlapping, gates them by zoom level, and can emphasize labels that fall inside an area of interest.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.emphasizeCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a layout runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pass.Runner, error) {
	store, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pass.NewRunner(store, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pinlabel/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
