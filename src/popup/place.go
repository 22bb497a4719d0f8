package popup

import (
	"clipboard-buddy/src/screen"
	"clipboard-buddy/src/session"
)

// landing returns where the window ended up after a show at want. Without
// native placement fyne centres the window on the primary display.
func (p *Presenter) landing(want session.Point) (session.Point, bool) {
	if got, ok := placeWindow(p.win, want); ok {
		return got, true
	}
	displays := screen.Displays()
	if len(displays) == 0 {
		return session.Point{}, false
	}
	d := displays[0]
	primary := session.Rect{
		Min: session.Point{X: d.Min.X, Y: d.Min.Y},
		Max: session.Point{X: d.Max.X, Y: d.Max.Y},
	}
	return centeredOn(primary, p.size), true
}

func centeredOn(monitor session.Rect, s session.Size) session.Point {
	return session.Point{
		X: monitor.Min.X + (monitor.Max.X-monitor.Min.X-s.Width)/2,
		Y: monitor.Min.Y + (monitor.Max.Y-monitor.Min.Y-s.Height)/2,
	}
}
