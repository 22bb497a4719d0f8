package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// DefaultConfigYAML is written on first run.
const DefaultConfigYAML = `# Clipboard Buddy configuration
theme: system
# hotkey: Ctrl+Shift+C   # when set, the popup opens on the hotkey instead of on every copy
completion_deadline_sec: 60
history: true
file_logging: false

actions:
  - label: Summarize
    key: S
    prompt: Summarize the following text in a few sentences.
    provider: openai
    model: gpt-4o-mini
  - label: Fix grammar
    key: G
    prompt: Fix spelling and grammar in the following text. Keep the original tone.
    provider: openai
    model: gpt-4o-mini
  - label: Translate to English
    key: T
    prompt: Translate the following text to English.
    provider: openai
    model: gpt-4o-mini
    paste: false

keys:
  # OPENAI_API_KEY: sk-...
  # OLLAMA_BASE_URL: http://localhost:11434/v1
`

// CreateUserData makes sure dir exists and holds a config file. It reports
// whether a default config was written.
func CreateUserData(dir string) (bool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create user data dir %s: %w", dir, err)
	}
	for _, name := range []string{DefaultFileName, "config.yaml", "config.toml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return false, nil
		}
	}
	path := filepath.Join(dir, DefaultFileName)
	if err := os.WriteFile(path, []byte(DefaultConfigYAML), 0o600); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}
	log.Printf("Wrote default config to %s", path)
	return true, nil
}
