//go:build windows

package popup

import (
	"unsafe"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"
	"golang.org/x/sys/windows"

	"clipboard-buddy/src/session"
)

var (
	user32            = windows.NewLazySystemDLL("user32.dll")
	procSetWindowPos  = user32.NewProc("SetWindowPos")
	procGetWindowRect = user32.NewProc("GetWindowRect")
)

const (
	swpNoSize     = 0x0001
	swpShowWindow = 0x0040
	hwndTopmost   = ^uintptr(0)
)

// placeWindow moves the window's top-left corner to pos and reads back
// where Windows put it.
func placeWindow(w fyne.Window, pos session.Point) (session.Point, bool) {
	nw, ok := w.(driver.NativeWindow)
	if !ok {
		return session.Point{}, false
	}
	var got session.Point
	placed := false
	nw.RunNative(func(ctx any) {
		wc, ok := ctx.(driver.WindowsWindowContext)
		if !ok || wc.HWND == 0 {
			return
		}
		r, _, _ := procSetWindowPos.Call(wc.HWND, hwndTopmost,
			uintptr(int32(pos.X)), uintptr(int32(pos.Y)), 0, 0,
			swpNoSize|swpShowWindow)
		if r == 0 {
			return
		}
		var rect windows.Rect
		if r, _, _ := procGetWindowRect.Call(wc.HWND, uintptr(unsafe.Pointer(&rect))); r == 0 {
			got, placed = pos, true
			return
		}
		got, placed = session.Point{X: int(rect.Left), Y: int(rect.Top)}, true
	})
	return got, placed
}
