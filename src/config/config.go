package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"clipboard-buddy/src/actions"
	"clipboard-buddy/src/llm"
)

const (
	DirName         = ".clipbud"
	DefaultFileName = "config.yml"
	ConfigEnvVar    = "CLIPBUD_CONFIG"
	EnvFileName     = ".env"

	ThemeDark   = "dark"
	ThemeLight  = "light"
	ThemeSystem = "system"

	DefaultDeadlineSec = 60
)

var (
	ErrNoActions        = errors.New("no actions configured")
	ErrInvalidTheme     = errors.New("invalid theme")
	ErrUnsupportedFile  = errors.New("unsupported config file extension")
	ErrInvalidDeadline  = errors.New("completion_deadline_sec must be positive")
	ErrInvalidWorkerCnt = errors.New("workers must not be negative")
)

// ActionConfig is one entry of the actions list.
type ActionConfig struct {
	Label    string `yaml:"label" toml:"label"`
	Prompt   string `yaml:"prompt" toml:"prompt"`
	Key      string `yaml:"key,omitempty" toml:"key,omitempty"`
	Model    string `yaml:"model" toml:"model"`
	Provider string `yaml:"provider" toml:"provider"`
	Paste    *bool  `yaml:"paste,omitempty" toml:"paste,omitempty"`
}

type Config struct {
	Theme                 string            `yaml:"theme,omitempty" toml:"theme,omitempty"`
	Hotkey                string            `yaml:"hotkey,omitempty" toml:"hotkey,omitempty"`
	Actions               []ActionConfig    `yaml:"actions" toml:"actions"`
	Keys                  map[string]string `yaml:"keys,omitempty" toml:"keys,omitempty"`
	Workers               int               `yaml:"workers,omitempty" toml:"workers,omitempty"`
	CompletionDeadlineSec int               `yaml:"completion_deadline_sec,omitempty" toml:"completion_deadline_sec,omitempty"`
	History               *bool             `yaml:"history,omitempty" toml:"history,omitempty"`
	FileLogging           bool              `yaml:"file_logging,omitempty" toml:"file_logging,omitempty"`

	// Path is the file the config was loaded from.
	Path string `yaml:"-" toml:"-"`
	// DotenvKeys holds credentials read from the .env next to the config file.
	DotenvKeys map[string]string `yaml:"-" toml:"-"`
}

type LoadOptions struct {
	PathOverride string
}

// DefaultDir returns ~/.clipbud.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// ResolvePath picks the config file: explicit override, then CLIPBUD_CONFIG,
// then the first of config.yml, config.yaml, config.toml in the user dir.
func ResolvePath(opts LoadOptions) (string, error) {
	if p := strings.TrimSpace(opts.PathOverride); p != "" {
		return expandHome(p)
	}
	if p := strings.TrimSpace(os.Getenv(ConfigEnvVar)); p != "" {
		return expandHome(p)
	}
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	for _, name := range []string{DefaultFileName, "config.yaml", "config.toml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return filepath.Join(dir, DefaultFileName), nil
}

func expandHome(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
	}
	return p, nil
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	path, err := ResolvePath(opts)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads, decodes and validates the config at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
	cfg.Path = path
	envPath := filepath.Join(filepath.Dir(path), EnvFileName)
	if cfg.DotenvKeys, err = readDotenvValues(envPath); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// readDotenvValues loads the optional .env; a missing file yields no values.
func readDotenvValues(envPath string) (map[string]string, error) {
	values, err := godotenv.Read(envPath)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (c *Config) applyDefaults() {
	c.Theme = strings.ToLower(strings.TrimSpace(c.Theme))
	if c.Theme == "" {
		c.Theme = ThemeSystem
	}
	c.Hotkey = strings.TrimSpace(c.Hotkey)
	if c.CompletionDeadlineSec == 0 {
		c.CompletionDeadlineSec = DefaultDeadlineSec
	}
	if v := os.Getenv("CLIPBUD_DEADLINE_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CompletionDeadlineSec = n
		}
	}
}

// Validate checks the fields that can be checked without binding providers.
func (c *Config) Validate() error {
	switch c.Theme {
	case ThemeDark, ThemeLight, ThemeSystem:
	default:
		return fmt.Errorf("%w %q: expected dark, light or system", ErrInvalidTheme, c.Theme)
	}
	if len(c.Actions) == 0 {
		return ErrNoActions
	}
	if c.CompletionDeadlineSec < 0 {
		return ErrInvalidDeadline
	}
	if c.Workers < 0 {
		return ErrInvalidWorkerCnt
	}
	return nil
}

// HistoryEnabled reports whether completions are logged; on unless disabled.
func (c *Config) HistoryEnabled() bool {
	return c.History == nil || *c.History
}

// Dir is the directory holding the config file.
func (c *Config) Dir() string {
	return filepath.Dir(c.Path)
}

// ActionSpecs converts the configured actions for the catalog.
func (c *Config) ActionSpecs() []actions.Spec {
	specs := make([]actions.Spec, len(c.Actions))
	for i, a := range c.Actions {
		specs[i] = actions.Spec{
			Label:    a.Label,
			Prompt:   a.Prompt,
			Key:      a.Key,
			Model:    a.Model,
			Provider: a.Provider,
			Paste:    a.Paste,
		}
	}
	return specs
}

// Credentials merges .env values under the config's keys section.
func (c *Config) Credentials() llm.Credentials {
	return llm.Credentials(c.DotenvKeys).Merge(llm.Credentials(c.Keys))
}
