package session

import (
	"testing"
)

func TestPlace(t *testing.T) {
	size := Size{Width: 400, Height: 200}
	offset := Point{X: 10, Y: 10}
	monitor := Rect{Max: Point{X: 1920, Y: 1080}}
	second := Rect{Min: Point{X: 1920, Y: 0}, Max: Point{X: 3840, Y: 1080}}

	tests := []struct {
		name    string
		cursor  Point
		monitor Rect
		ok      bool
		want    Point
	}{
		{"inside", Point{X: 100, Y: 100}, monitor, true, Point{X: 110, Y: 110}},
		{"right edge", Point{X: 1800, Y: 100}, monitor, true, Point{X: 1520, Y: 110}},
		{"bottom edge", Point{X: 100, Y: 1000}, monitor, true, Point{X: 110, Y: 880}},
		{"bottom right corner", Point{X: 1919, Y: 1079}, monitor, true, Point{X: 1520, Y: 880}},
		{"second monitor", Point{X: 3800, Y: 50}, second, true, Point{X: 3440, Y: 60}},
		{"unknown bounds", Point{X: 1900, Y: 1070}, Rect{}, false, Point{X: 1910, Y: 1080}},
		{"empty bounds", Point{X: 5, Y: 5}, Rect{}, true, Point{X: 15, Y: 15}},
		{"monitor smaller than window", Point{X: 50, Y: 50}, Rect{Max: Point{X: 300, Y: 100}}, true, Point{X: 0, Y: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Place(tt.cursor, offset, size, tt.monitor, tt.ok)
			if got != tt.want {
				t.Errorf("Place(%v) = %v, expected %v", tt.cursor, got, tt.want)
			}
			if tt.ok && !tt.monitor.Empty() && tt.monitor.Max.X-tt.monitor.Min.X >= size.Width {
				win := RectAt(got, size)
				if win.Min.X < tt.monitor.Min.X || win.Max.X > tt.monitor.Max.X ||
					win.Min.Y < tt.monitor.Min.Y || win.Max.Y > tt.monitor.Max.Y {
					t.Errorf("window %v escapes monitor %v", win, tt.monitor)
				}
			}
		})
	}
}

func TestRectExpandContains(t *testing.T) {
	r := RectAt(Point{X: 100, Y: 100}, Size{Width: 400, Height: 200})
	e := r.Expand(20)

	if !e.Contains(Point{X: 85, Y: 90}) {
		t.Error("expected point within margin to be contained")
	}
	if e.Contains(Point{X: 79, Y: 150}) {
		t.Error("expected point left of margin to be outside")
	}
	if e.Contains(Point{X: 300, Y: 320}) {
		t.Error("expected point below margin to be outside")
	}
}

func TestSnapshotCopiesOptionalFields(t *testing.T) {
	text := "hello"
	msg := "boom"
	s := Session{ClipboardText: &text, ErrorMessage: &msg, Visible: true}

	snap := s.Snapshot(nil)
	if !snap.HasClipboardText || snap.ClipboardText != "hello" {
		t.Fatalf("expected clipboard text to be copied, got %+v", snap)
	}
	if snap.ErrorMessage != "boom" {
		t.Fatalf("expected error message boom, got %q", snap.ErrorMessage)
	}

	empty := Session{}
	snap = empty.Snapshot(nil)
	if snap.HasClipboardText || snap.ErrorMessage != "" {
		t.Fatalf("expected empty optional fields, got %+v", snap)
	}
}
