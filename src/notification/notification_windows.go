//go:build windows

package notification

import (
	"log"

	"golang.org/x/sys/windows"
)

const (
	mbOK        = 0x00000000
	mbIconError = 0x00000010
	mbTopmost   = 0x00040000
)

// ShowBlockingError shows a modal message box and waits until it is closed.
func ShowBlockingError(title, message string) {
	t, err := windows.UTF16PtrFromString(title)
	if err != nil {
		log.Printf("%s: %s", title, message)
		return
	}
	m, err := windows.UTF16PtrFromString(message)
	if err != nil {
		log.Printf("%s: %s", title, message)
		return
	}
	if _, err := windows.MessageBox(0, m, t, mbOK|mbIconError|mbTopmost); err != nil {
		log.Printf("Failed to show message box: %v", err)
	}
}
