package label

import "testing"

func TestShouldShowLabels(t *testing.T) {
	tests := []struct {
		name        string
		zoom        float64
		minimumZoom float64
		want        bool
	}{
		{"above threshold", 12, 10, true},
		{"exactly at threshold", 10, 10, true},
		{"below threshold", 9.5, 10, false},
		{"unset minimum uses default", 11, 0, true},
		{"unset minimum below default", 9, 0, false},
		{"negative minimum uses default", 10, -5, true},
		{"custom low threshold", 4, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldShowLabels(tt.zoom, tt.minimumZoom); got != tt.want {
				t.Errorf("ShouldShowLabels(%v, %v) = %v, want %v",
					tt.zoom, tt.minimumZoom, got, tt.want)
			}
		})
	}
}

func TestMinimumZoomOrDefault(t *testing.T) {
	if got := MinimumZoomOrDefault(0); got != DefaultMinimumZoom {
		t.Errorf("MinimumZoomOrDefault(0) = %v, want %v", got, DefaultMinimumZoom)
	}
	if got := MinimumZoomOrDefault(7); got != 7 {
		t.Errorf("MinimumZoomOrDefault(7) = %v, want 7", got)
	}
}
