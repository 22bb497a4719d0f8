package clipboard

import (
	"context"
	"errors"
	"log"
	"sync"

	"golang.design/x/clipboard"

	"clipboard-buddy/src/logutil"
	"clipboard-buddy/src/messages"
	"clipboard-buddy/src/session"
)

// ErrWriteNotApplied is returned when a write could not be read back.
var ErrWriteNotApplied = errors.New("clipboard write was not applied")

var (
	writeMu sync.Mutex
)

func Init() error {
	return clipboard.Init()
}

// Read returns the current text content of the clipboard.
func Read() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// Write performs a mutex-guarded clipboard write and verifies it by reading back.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	if got := string(clipboard.Read(clipboard.FmtText)); got != text {
		return ErrWriteNotApplied
	}
	return nil
}

// Writer adapts the package functions to an interface value.
type Writer struct{}

func (Writer) Write(text string) error { return Write(text) }

// Pointer samples the cursor when a change is seen.
type Pointer interface {
	Location() session.Point
}

// Watch reports every non-empty text change until ctx is done. It blocks.
func Watch(ctx context.Context, pointer Pointer, onChange func(messages.ClipboardChanged)) {
	ch := clipboard.Watch(ctx, clipboard.FmtText)
	log.Printf("Clipboard watcher started")
	for data := range ch {
		if len(data) == 0 {
			continue
		}
		msg := messages.ClipboardChanged{Text: string(data)}
		if pointer != nil {
			msg.Cursor = pointer.Location()
		}
		log.Printf("Clipboard watcher: %s", logutil.Sanitize(msg.Text))
		onChange(msg)
	}
	log.Printf("Clipboard watcher stopped")
}
