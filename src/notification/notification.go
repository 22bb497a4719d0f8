package notification

import (
	"fmt"
	"log"
	"strings"
)

const maxMessageLen = 2000

// Startup reports a fatal startup error to the user and the log.
func Startup(err error) {
	if err == nil {
		return
	}
	log.Printf("Startup failed: %v", err)
	ShowBlockingError("Clipboard Buddy", formatStartup(err))
}

func formatStartup(err error) string {
	msg := fmt.Sprintf("Clipboard Buddy could not start:\n\n%v", err)
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen] + "..."
	}
	return strings.TrimSpace(msg)
}
