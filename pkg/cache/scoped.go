package cache

// ScopedKeyer wraps a Keyer with a prefix so different consumers of one
// cache get isolated namespaces.
//
// Example usage:
//
//	// Emphasize runs live in their own namespace
//	emphKeyer := NewScopedKeyer(NewDefaultKeyer(), "emphasize:")
//
//	// Unscoped keys for batch layout runs
//	batchKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed key for a layout result.
func (k *ScopedKeyer) LayoutKey(setHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(setHash, opts)
}

// EmphasisKey generates a prefixed key for an emphasis summary.
func (k *ScopedKeyer) EmphasisKey(setHash string, opts EmphasisKeyOpts) string {
	return k.prefix + k.inner.EmphasisKey(setHash, opts)
}
