package messages

import (
	"clipboard-buddy/src/session"
)

// ClipboardChanged - sent by the clipboard watcher on every OS clipboard update
type ClipboardChanged struct {
	Text   string
	Cursor session.Point // cursor position sampled when the change was seen
}

// HotkeyPressed - sent by the hotkey listener when the configured combo fires
type HotkeyPressed struct {
	Combo string // e.g., "Ctrl+Shift+C"
}

// Command identifies a tray menu item.
type Command int

const (
	CommandQuit Command = iota
	CommandConfigure
	CommandReload
	CommandShow // shows the popup at the cursor; sent by the resident server
)

func (c Command) String() string {
	switch c {
	case CommandQuit:
		return "quit"
	case CommandConfigure:
		return "configure"
	case CommandReload:
		return "reload"
	case CommandShow:
		return "show"
	default:
		return "unknown"
	}
}

// MenuCommand - sent by the tray when the user clicks a menu item
type MenuCommand struct {
	Command Command
}

// CompletionResult - sent by a completion worker exactly once per request.
// Err == nil means success.
type CompletionResult struct {
	RequestID string
	Text      string
	Paste     bool
	Err       error
}

// OfferLatest posts msg into a capacity-1 channel, replacing whatever is
// still queued. Used for clipboard updates where only the newest matters.
// ch must be buffered.
func OfferLatest[T any](ch chan T, msg T) {
	for {
		select {
		case ch <- msg:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// OfferDrop posts msg without blocking and reports whether it was queued.
func OfferDrop[T any](ch chan<- T, msg T) bool {
	select {
	case ch <- msg:
		return true
	default:
		return false
	}
}
