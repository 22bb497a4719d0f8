package session

import (
	"time"
)

// Point is a position in virtual-screen pixels.
type Point struct {
	X int
	Y int
}

// Add returns p shifted by d.
func (p Point) Add(d Point) Point { return Point{X: p.X + d.X, Y: p.Y + d.Y} }

type Size struct {
	Width  int
	Height int
}

// Rect is a half-open rectangle [Min, Max).
type Rect struct {
	Min Point
	Max Point
}

// RectAt builds the rectangle of the given size with its top-left corner at p.
func RectAt(p Point, s Size) Rect {
	return Rect{Min: p, Max: Point{X: p.X + s.Width, Y: p.Y + s.Height}}
}

// Expand grows r by margin on every side.
func (r Rect) Expand(margin int) Rect {
	return Rect{
		Min: Point{X: r.Min.X - margin, Y: r.Min.Y - margin},
		Max: Point{X: r.Max.X + margin, Y: r.Max.Y + margin},
	}
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

func (r Rect) Empty() bool { return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y }

// Place returns the top-left corner for a window of size s shown next to
// cursor. When monitor bounds are known (ok) the window is kept inside them;
// a window larger than the monitor is pinned to its top-left edge.
func Place(cursor, offset Point, s Size, monitor Rect, ok bool) Point {
	p := cursor.Add(offset)
	if !ok || monitor.Empty() {
		return p
	}
	p.X = clamp(p.X, monitor.Min.X, monitor.Max.X-s.Width)
	p.Y = clamp(p.Y, monitor.Min.Y, monitor.Max.Y-s.Height)
	return p
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Session is the mutable state of one popup lifecycle. It is owned by the
// event loop goroutine and never shared.
type Session struct {
	ClipboardText *string
	Visible       bool
	Position      Point
	Size          Size
	Loading       bool
	LoadingSince  time.Time
	CurrentAction string
	ErrorMessage  *string
}

// ActionView is the read-only description of an action button.
type ActionView struct {
	Label      string
	Key        string
	ButtonText string
}

// Snapshot is what the presenter draws for one tick.
type Snapshot struct {
	Visible          bool
	Position         Point
	Size             Size
	Loading          bool
	LoadingSince     time.Time
	CurrentAction    string
	ClipboardText    string
	HasClipboardText bool
	ErrorMessage     string
	Actions          []ActionView
	// FocusRequested is set only on the tick the window was shown.
	FocusRequested bool
}

// Snapshot copies s into a render snapshot.
func (s *Session) Snapshot(actions []ActionView) Snapshot {
	snap := Snapshot{
		Visible:       s.Visible,
		Position:      s.Position,
		Size:          s.Size,
		Loading:       s.Loading,
		LoadingSince:  s.LoadingSince,
		CurrentAction: s.CurrentAction,
		Actions:       actions,
	}
	if s.ClipboardText != nil {
		snap.ClipboardText = *s.ClipboardText
		snap.HasClipboardText = true
	}
	if s.ErrorMessage != nil {
		snap.ErrorMessage = *s.ErrorMessage
	}
	return snap
}
