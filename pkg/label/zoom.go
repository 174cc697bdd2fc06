package label

// DefaultMinimumZoom is the zoom level below which labels hide when a layer
// does not configure its own threshold.
const DefaultMinimumZoom = 10.0

// MinimumZoomOrDefault returns the effective minimum zoom for a layer.
// Zero or negative means unset.
func MinimumZoomOrDefault(minimumZoom float64) float64 {
	if minimumZoom <= 0 {
		return DefaultMinimumZoom
	}
	return minimumZoom
}

// ShouldShowLabels reports whether a layer's labels display at the given
// zoom. This gate is independent of collision layout: the final visibility
// of a label is this result ANDed with its placement's Visible flag.
func ShouldShowLabels(zoom, minimumZoom float64) bool {
	return zoom >= MinimumZoomOrDefault(minimumZoom)
}
