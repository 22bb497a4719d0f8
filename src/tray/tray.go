package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"

	"clipboard-buddy/src/messages"
)

// Config describes the tray icon and where menu clicks go.
type Config struct {
	Title   string
	Tooltip string
	Icon    []byte
	// OnCommand receives every menu click. It may block.
	OnCommand func(messages.MenuCommand)
}

// Tray owns the status-bar icon and its Configure, Reload and Quit items.
type Tray struct {
	cfg   Config
	mu    sync.Mutex
	ready bool
	quit  chan struct{}
	once  sync.Once
}

// item is a menu entry with a stable command identity.
type item struct {
	cmd     messages.Command
	title   string
	tooltip string
}

var menu = []item{
	{messages.CommandConfigure, "Configure", "Open the configuration file"},
	{messages.CommandReload, "Reload", "Restart with the current configuration"},
	{messages.CommandQuit, "Quit", "Quit Clipboard Buddy"},
}

func New(cfg Config) (*Tray, error) {
	if cfg.Icon == nil {
		cfg.Icon = Icon()
	}
	if cfg.Title == "" {
		cfg.Title = "Clipboard Buddy"
	}
	if cfg.Tooltip == "" {
		cfg.Tooltip = cfg.Title
	}
	return &Tray{cfg: cfg, quit: make(chan struct{})}, nil
}

// Register starts the tray while another toolkit owns the main loop.
func (t *Tray) Register() {
	systray.Register(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(t.cfg.Icon)
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	for i, it := range menu {
		if it.cmd == messages.CommandQuit && i > 0 {
			systray.AddSeparator()
		}
		mi := systray.AddMenuItem(it.title, it.tooltip)
		go t.forward(mi.ClickedCh, it.cmd)
	}

	t.mu.Lock()
	t.ready = true
	t.mu.Unlock()
	log.Printf("Tray ready")
}

func (t *Tray) forward(clicked <-chan struct{}, cmd messages.Command) {
	for {
		select {
		case <-t.quit:
			return
		case <-clicked:
			log.Printf("Tray: %s clicked", cmd)
			if t.cfg.OnCommand != nil {
				t.cfg.OnCommand(messages.MenuCommand{Command: cmd})
			}
		}
	}
}

func (t *Tray) onExit() {
	t.once.Do(func() { close(t.quit) })
	log.Printf("Tray exited")
}

// SetTooltip updates the tooltip once the tray is ready.
func (t *Tray) SetTooltip(text string) {
	t.mu.Lock()
	ready := t.ready
	t.mu.Unlock()
	if ready {
		systray.SetTooltip(text)
	}
}

// Destroy removes the tray icon.
func (t *Tray) Destroy() {
	systray.Quit()
}
