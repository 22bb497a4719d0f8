package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"unicode/utf8"
)

const (
	LogFileName  = "clipboard_buddy.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
	previewRunes = 24
)

// Options controls where the std logger writes.
type Options struct {
	Dir         string // directory of the log file; "." when empty
	FileLogging bool
	Verbose     bool // mirror to stderr
}

// Setup enables file logging with basic size-based rotation (10MB, max 3 files).
// When disabled, logs are discarded unless Verbose is set.
func Setup(opts Options) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var outputs []io.Writer
	if opts.Verbose {
		outputs = append(outputs, os.Stderr)
	}
	if opts.FileLogging {
		w, err := newRotatingWriter(logPath(opts.Dir))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		} else {
			outputs = append(outputs, w)
		}
	}

	switch len(outputs) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(outputs[0])
	default:
		log.SetOutput(io.MultiWriter(outputs...))
	}
}

func logPath(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, LogFileName)
}

type rotatingWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func newRotatingWriter(path string) (*rotatingWriter, error) {
	rotateIfNeeded(path, 0)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{path: path, f: f}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		rotateIfNeeded(w.path, int64(len(p)))
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

// rotateIfNeeded shifts path to .1, .2, .3 (oldest discarded) when the next
// write of pending bytes would exceed the size limit.
func rotateIfNeeded(path string, pending int64) {
	st, err := os.Stat(path)
	if err != nil || st.Size()+pending <= maxSizeBytes {
		return
	}
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string { return fmt.Sprintf("%s.%d", path, n) }

// RedactKey masks an API key, leaving first/last 4 chars: xxxx...yyyy
func RedactKey(k string) string {
	if len(k) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", k[:4], k[len(k)-4:])
}

// Sanitize renders clipboard text for logs: rune count plus a short quoted preview.
func Sanitize(text string) string {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return "<empty>"
	}
	preview := text
	if n > previewRunes {
		runes := []rune(text)
		preview = string(runes[:previewRunes]) + "..."
	}
	return fmt.Sprintf("%d chars %s", n, strconv.Quote(preview))
}
