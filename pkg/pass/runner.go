package pass

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mkarras/pinlabel/pkg/cache"
	"github.com/mkarras/pinlabel/pkg/label"
	"github.com/mkarras/pinlabel/pkg/observability"
)

// Runner encapsulates batch layout execution with caching.
// The CLI uses this so repeated runs over the same candidate set reuse the
// cached result instead of recomputing the layout.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store layout results. Multiple goroutines can safely use the same Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Layout runs the collision layout for a candidate set, consulting the
// cache first. The boolean reports whether the result was a cache hit.
func (r *Runner) Layout(ctx context.Context, set label.CandidateSet) (*label.Result, bool, error) {
	cfg := set.Config
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}

	key, err := r.layoutKey(set, cfg)
	if err != nil {
		return nil, false, err
	}

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		if result, err := label.UnmarshalResult(data); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			r.Logger.Debug("layout cache hit", "key", key)
			return &result, true, nil
		}
		// Corrupt entry: fall through and recompute.
		_ = r.Cache.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	start := time.Now()
	observability.Pass().OnLayoutStart(ctx, len(set.Candidates))
	placements := label.Layout(set.Candidates, cfg)
	result := label.NewResult(cfg, placements)
	observability.Pass().OnLayoutComplete(ctx, result.Visible, time.Since(start))

	r.Logger.Info("computed layout",
		"candidates", len(set.Candidates),
		"visible", result.Visible,
		"hidden", result.Hidden,
		"duration", time.Since(start))

	if data, err := label.MarshalResult(result); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	return &result, false, nil
}

// layoutKey builds the cache key for a candidate set under a config.
func (r *Runner) layoutKey(set label.CandidateSet, cfg label.Config) (string, error) {
	data, err := label.MarshalCandidateSet(set)
	if err != nil {
		return "", fmt.Errorf("hash candidate set: %w", err)
	}
	return r.Keyer.LayoutKey(cache.Hash(data), cache.LayoutKeyOpts{
		ViewportWidth:   cfg.ViewportWidth,
		ViewportHeight:  cfg.ViewportHeight,
		AvoidCollisions: cfg.AvoidCollisions,
		MaxVisible:      cfg.MaxVisibleLabels,
		Padding:         cfg.Padding,
	}), nil
}
