package hotkey

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

var (
	ErrEmptyCombo   = errors.New("empty hotkey")
	ErrUnknownKey   = errors.New("unknown key")
	ErrNoTriggerKey = errors.New("hotkey needs a non-modifier key")
)

// key is one element of a combination, matched on either the Windows
// virtual-key rawcode or the cross-platform gohook keycode.
type key struct {
	name     string
	rawcodes []uint16
	keycodes []uint16
}

func (k key) matches(ev gohook.Event) bool {
	for _, rc := range k.rawcodes {
		if ev.Rawcode == rc {
			return true
		}
	}
	for _, kc := range k.keycodes {
		if ev.Keycode == kc {
			return true
		}
	}
	return false
}

// Parse validates a combo such as "Ctrl+Shift+C".
func Parse(combo string) ([]string, error) {
	keys := parseHotkey(combo)
	if len(keys) == 0 {
		return nil, ErrEmptyCombo
	}
	seen := map[string]bool{}
	hasTrigger := false
	for _, k := range keys {
		if k == "" || keyNameToRawcodes(k) == nil {
			return nil, fmt.Errorf("%w %q in hotkey %q", ErrUnknownKey, k, combo)
		}
		if seen[k] {
			return nil, fmt.Errorf("duplicate key %q in hotkey %q", k, combo)
		}
		seen[k] = true
		if !isModifier(k) {
			hasTrigger = true
		}
	}
	if !hasTrigger {
		return nil, fmt.Errorf("%w: %q", ErrNoTriggerKey, combo)
	}
	return keys, nil
}

// Listen registers a global hotkey and invokes callback on every press.
// It returns an error for invalid combos; the hook runs on its own goroutine.
func Listen(combo string, callback func()) error {
	names, err := Parse(combo)
	if err != nil {
		return err
	}

	keys := make([]key, 0, len(names))
	for _, name := range names {
		k := key{name: name, rawcodes: keyNameToRawcodes(name)}
		if kc, ok := gohook.Keycode[hookName(name)]; ok {
			k.keycodes = append(k.keycodes, kc)
		}
		keys = append(keys, k)
	}
	log.Printf("Hotkey listener configured for: %s (%v)", combo, names)

	evChan := gohook.Start()
	if evChan == nil {
		return errors.New("gohook.Start() returned nil channel")
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()
		m := newMatcher(keys)
		for ev := range evChan {
			if m.handle(ev) {
				log.Printf("Hotkey activated: %s", combo)
				if callback != nil {
					callback()
				}
			}
		}
		log.Printf("Hotkey event channel closed")
	}()
	return nil
}

// Stop ends the global hook.
func Stop() {
	gohook.End()
}

// matcher tracks the pressed state of each key in a combination.
type matcher struct {
	mu      sync.Mutex
	keys    []key
	pressed []bool
}

func newMatcher(keys []key) *matcher {
	return &matcher{keys: keys, pressed: make([]bool, len(keys))}
}

// handle updates key state and reports whether the full combination just fired.
func (m *matcher) handle(ev gohook.Event) bool {
	if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyHold && ev.Kind != gohook.KeyUp {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	down := ev.Kind != gohook.KeyUp
	for i, k := range m.keys {
		if k.matches(ev) {
			m.pressed[i] = down
		}
	}
	if !down {
		return false
	}
	for _, p := range m.pressed {
		if !p {
			return false
		}
	}
	// Reset so a held combination fires once
	for i := range m.pressed {
		m.pressed[i] = false
	}
	return true
}

func isModifier(name string) bool {
	switch name {
	case "ctrl", "alt", "shift", "cmd":
		return true
	}
	return false
}

// hookName maps our names to gohook.Keycode keys.
func hookName(name string) string {
	switch name {
	case "escape":
		return "esc"
	case "return":
		return "enter"
	}
	return name
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	if strings.TrimSpace(hotkeyConfig) == "" {
		return nil
	}
	parts := strings.Split(strings.ToLower(hotkeyConfig), "+")
	keys := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "control":
			part = "ctrl"
		case "option":
			part = "alt"
		case "win", "super", "meta", "command":
			part = "cmd"
		}
		keys = append(keys, part)
	}

	return keys
}

var namedRawcodes = map[string][]uint16{
	// Modifier keys - both left and right variants
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyNameToRawcodes maps a key name to its Windows virtual key code rawcodes.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if keyName == "win" || keyName == "super" {
		keyName = "cmd"
	}
	if codes, ok := namedRawcodes[keyName]; ok {
		return codes
	}

	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65} // VK 0x41-0x5A
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48} // VK 0x30-0x39
		}
	}

	var n int
	if _, err := fmt.Sscanf(keyName, "f%d", &n); err == nil && fmt.Sprintf("f%d", n) == keyName && n >= 1 && n <= 24 {
		return []uint16{uint16(111 + n)} // VK_F1 = 112
	}
	return nil
}
