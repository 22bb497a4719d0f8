package runtimeinit

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"clipboard-buddy/src/actions"
	"clipboard-buddy/src/clipboard"
	"clipboard-buddy/src/config"
	"clipboard-buddy/src/history"
	"clipboard-buddy/src/hotkey"
	"clipboard-buddy/src/llm"
	"clipboard-buddy/src/logutil"
)

type Options struct {
	LoadOptions config.LoadOptions
	// CreateUserData writes a default config when none exists yet.
	CreateUserData bool
	Verbose        bool
	// SkipLogging leaves the std logger as the caller configured it.
	SkipLogging   bool
	InitClipboard bool
	// Binder overrides the provider registry built from the config keys.
	Binder actions.Binder
}

// Runtime is everything the resident app and the CLI need after startup.
type Runtime struct {
	Config  *config.Config
	Catalog *actions.Catalog
	History *history.Store // nil when history is disabled
}

// Close releases the history database.
func (rt *Runtime) Close() error {
	if rt == nil || rt.History == nil {
		return nil
	}
	return rt.History.Close()
}

// Bootstrap loads and validates the configuration and compiles every action.
// Any error is a configuration error and is fatal for the caller.
func Bootstrap(opts Options) (*Runtime, error) {
	if opts.CreateUserData && opts.LoadOptions.PathOverride == "" {
		path, err := config.ResolvePath(opts.LoadOptions)
		if err != nil {
			return nil, err
		}
		if _, err := config.CreateUserData(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if !opts.SkipLogging {
		logutil.Setup(logutil.Options{Dir: cfg.Dir(), FileLogging: cfg.FileLogging, Verbose: opts.Verbose})
	}
	log.Printf("Loaded config %s: %d actions, theme %s", cfg.Path, len(cfg.Actions), cfg.Theme)

	creds := cfg.Credentials()
	for _, name := range creds.Names() {
		log.Printf("Credential %s = %s", name, logutil.RedactKey(creds.Get(name)))
	}

	if cfg.Hotkey != "" {
		keys, err := hotkey.Parse(cfg.Hotkey)
		if err != nil {
			return nil, fmt.Errorf("invalid hotkey %q: %w", cfg.Hotkey, err)
		}
		log.Printf("Hotkey %s", strings.Join(keys, "+"))
	}

	catalog, err := actions.New(cfg.ActionSpecs())
	if err != nil {
		return nil, err
	}
	binder := opts.Binder
	if binder == nil {
		binder = llm.NewRegistry(creds)
	}
	if err := catalog.Compile(binder); err != nil {
		return nil, err
	}
	log.Printf("Compiled %d actions", catalog.Len())

	rt := &Runtime{Config: cfg, Catalog: catalog}
	if cfg.HistoryEnabled() {
		store, err := history.Open(cfg.Dir())
		if err != nil {
			return nil, err
		}
		rt.History = store
	}

	if opts.InitClipboard {
		if err := clipboard.Init(); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}
	return rt, nil
}
