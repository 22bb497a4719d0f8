package logutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRedactKey(t *testing.T) {
	if got := RedactKey("short"); got != "********" {
		t.Errorf("RedactKey(short) = %q", got)
	}
	if got := RedactKey("sk-1234567890abcd"); got != "sk-1...abcd" {
		t.Errorf("RedactKey() = %q", got)
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize(""); got != "<empty>" {
		t.Errorf("Sanitize(\"\") = %q", got)
	}
	if got := Sanitize("hi\nthere"); got != `8 chars "hi\nthere"` {
		t.Errorf("Sanitize() = %q", got)
	}
	long := strings.Repeat("é", 30)
	got := Sanitize(long)
	if !strings.HasPrefix(got, "30 chars ") || !strings.HasSuffix(got, `..."`) {
		t.Errorf("Sanitize(long) = %q", got)
	}
}

func TestRotateIfNeeded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LogFileName)
	if err := os.WriteFile(path, make([]byte, maxSizeBytes), 0666); err != nil {
		t.Fatal(err)
	}

	rotateIfNeeded(path, 1)

	if _, err := os.Stat(archiveName(path, 1)); err != nil {
		t.Errorf("Expected archive .1 after rotation: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected base log to be moved, stat err=%v", err)
	}
}
