//go:build !windows

package popup

import (
	"fyne.io/fyne/v2"

	"clipboard-buddy/src/session"
)

func placeWindow(fyne.Window, session.Point) (session.Point, bool) {
	return session.Point{}, false
}
