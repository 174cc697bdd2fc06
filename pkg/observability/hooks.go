// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about layout passes, pointer picks, and cache
// operations; everything defaults to a no-op.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This keeps the core library free of observability frameworks while letting
// an application wire in whichever backend it uses.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPassHooks(&myPassHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pass().OnPassStart(ctx, layerCount)
//	// ... run the pass ...
//	observability.Pass().OnPassComplete(ctx, candidates, placed, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pass Hooks
// =============================================================================

// PassHooks receives events from layout pass execution.
type PassHooks interface {
	// Pass boundary events
	OnPassStart(ctx context.Context, layerCount int)
	OnPassComplete(ctx context.Context, candidates, placed int, duration time.Duration, err error)

	// Engine events
	OnLayoutStart(ctx context.Context, candidateCount int)
	OnLayoutComplete(ctx context.Context, visible int, duration time.Duration)
}

// =============================================================================
// Pick Hooks
// =============================================================================

// PickHooks receives events from asynchronous pointer picks.
type PickHooks interface {
	// OnPickStart records an issued pick with its generation.
	OnPickStart(ctx context.Context, generation uint64)

	// OnPickComplete records a pick whose result was applied.
	OnPickComplete(ctx context.Context, generation uint64, hits int, duration time.Duration)

	// OnPickDiscarded records a stale pick whose result was dropped
	// because a newer interaction superseded it.
	OnPickDiscarded(ctx context.Context, generation uint64)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPassHooks is a no-op implementation of PassHooks.
type NoopPassHooks struct{}

func (NoopPassHooks) OnPassStart(context.Context, int)                               {}
func (NoopPassHooks) OnPassComplete(context.Context, int, int, time.Duration, error) {}
func (NoopPassHooks) OnLayoutStart(context.Context, int)                             {}
func (NoopPassHooks) OnLayoutComplete(context.Context, int, time.Duration)           {}

// NoopPickHooks is a no-op implementation of PickHooks.
type NoopPickHooks struct{}

func (NoopPickHooks) OnPickStart(context.Context, uint64)                        {}
func (NoopPickHooks) OnPickComplete(context.Context, uint64, int, time.Duration) {}
func (NoopPickHooks) OnPickDiscarded(context.Context, uint64)                    {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	passHooks  PassHooks  = NoopPassHooks{}
	pickHooks  PickHooks  = NoopPickHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	hooksMu    sync.RWMutex
)

// SetPassHooks registers custom pass hooks.
// This should be called once at application startup before any passes run.
func SetPassHooks(h PassHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		passHooks = h
	}
}

// SetPickHooks registers custom pick hooks.
// This should be called once at application startup before any picks run.
func SetPickHooks(h PickHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pickHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pass returns the registered pass hooks.
func Pass() PassHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return passHooks
}

// Pick returns the registered pick hooks.
func Pick() PickHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pickHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	passHooks = NoopPassHooks{}
	pickHooks = NoopPickHooks{}
	cacheHooks = NoopCacheHooks{}
}
