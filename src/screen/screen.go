package screen

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"

	"clipboard-buddy/src/session"
)

// Displays returns the bounds of every active display.
func Displays() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	bounds := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		bounds = append(bounds, screenshot.GetDisplayBounds(i))
	}
	return bounds
}

// VirtualBounds returns the union of all active displays.
func VirtualBounds() (image.Rectangle, error) {
	displays := Displays()
	if len(displays) == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	union := displays[0]
	for _, b := range displays[1:] {
		union = union.Union(b)
	}
	return union, nil
}

// Desktop samples the cursor and resolves monitors on the live desktop.
type Desktop struct{}

// Location returns the current cursor position.
func (Desktop) Location() session.Point {
	x, y := robotgo.Location()
	return session.Point{X: x, Y: y}
}

// MonitorAt returns the bounds of the display containing p.
func (Desktop) MonitorAt(p session.Point) (session.Rect, bool) {
	return MonitorContaining(Displays(), p)
}

// MonitorContaining picks the display that contains p. A point in a gap
// between displays resolves to the nearest one; no displays means unknown.
func MonitorContaining(displays []image.Rectangle, p session.Point) (session.Rect, bool) {
	if len(displays) == 0 {
		return session.Rect{}, false
	}
	pt := image.Pt(p.X, p.Y)
	best, bestDist := 0, -1
	for i, b := range displays {
		if pt.In(b) {
			return toRect(b), true
		}
		if d := distance2(b, pt); bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return toRect(displays[best]), true
}

func toRect(r image.Rectangle) session.Rect {
	return session.Rect{
		Min: session.Point{X: r.Min.X, Y: r.Min.Y},
		Max: session.Point{X: r.Max.X, Y: r.Max.Y},
	}
}

// distance2 is the squared distance from p to the nearest point of r.
func distance2(r image.Rectangle, p image.Point) int {
	dx := 0
	if p.X < r.Min.X {
		dx = r.Min.X - p.X
	} else if p.X >= r.Max.X {
		dx = p.X - r.Max.X + 1
	}
	dy := 0
	if p.Y < r.Min.Y {
		dy = r.Min.Y - p.Y
	} else if p.Y >= r.Max.Y {
		dy = p.Y - r.Max.Y + 1
	}
	return dx*dx + dy*dy
}
