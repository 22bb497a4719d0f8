package screen

import (
	"image"
	"testing"

	"clipboard-buddy/src/session"
)

func TestMonitorContaining(t *testing.T) {
	displays := []image.Rectangle{
		image.Rect(0, 0, 1920, 1080),
		image.Rect(1920, 0, 3840, 1440),
		image.Rect(-1280, 200, 0, 1224),
	}

	tests := []struct {
		name string
		p    session.Point
		want session.Rect
	}{
		{"primary", session.Point{X: 100, Y: 100}, session.Rect{Max: session.Point{X: 1920, Y: 1080}}},
		{"right edge belongs to second", session.Point{X: 1920, Y: 10}, session.Rect{Min: session.Point{X: 1920}, Max: session.Point{X: 3840, Y: 1440}}},
		{"negative coordinates", session.Point{X: -5, Y: 300}, session.Rect{Min: session.Point{X: -1280, Y: 200}, Max: session.Point{X: 0, Y: 1224}}},
		{"gap below primary picks nearest", session.Point{X: 500, Y: 1200}, session.Rect{Max: session.Point{X: 1920, Y: 1080}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MonitorContaining(displays, tt.p)
			if !ok {
				t.Fatal("Expected bounds to be known")
			}
			if got != tt.want {
				t.Errorf("MonitorContaining(%+v) = %+v, expected %+v", tt.p, got, tt.want)
			}
		})
	}

	if _, ok := MonitorContaining(nil, session.Point{}); ok {
		t.Error("Expected unknown bounds without displays")
	}
}

func TestVirtualBounds(t *testing.T) {
	// Requires a display; headless runs only log.
	b, err := VirtualBounds()
	if err != nil {
		t.Logf("No displays: %v", err)
		return
	}
	if b.Empty() {
		t.Errorf("Expected non-empty virtual bounds")
	}
}
