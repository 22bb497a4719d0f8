package eventloop

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"clipboard-buddy/src/actions"
	"clipboard-buddy/src/logutil"
	"clipboard-buddy/src/messages"
	"clipboard-buddy/src/session"
	"clipboard-buddy/src/worker"
)

const (
	// CursorOffset is added to the cursor when the window is shown.
	CursorOffset = 10
	// LeaveMargin is how far outside the window the pointer may go before it hides.
	LeaveMargin = 20
	// DefaultTickInterval paces Run when no wake-up arrives.
	DefaultTickInterval = 30 * time.Millisecond
)

// DefaultWindowSize is the fixed popup size.
var DefaultWindowSize = session.Size{Width: 400, Height: 200}

// User-visible modal texts.
const (
	msgNoClipboard  = "❌ No clipboard text found"
	msgPoolFull     = "❌ Too many requests in flight, please retry"
	msgPasteFailed  = "❌ Failed to paste to clipboard: "
	msgErrorPrefix  = "❌ "
	tooltipIdle     = "Clipboard Buddy"
	tooltipBusyPref = "Clipboard Buddy: "
)

// ErrNoClipboardText is the trigger error raised when nothing has been copied yet.
var ErrNoClipboardText = errors.New("no clipboard text found")

// ClipboardWriter pastes completion output back to the OS clipboard.
type ClipboardWriter interface {
	Write(text string) error
}

// Pointer samples the current cursor position.
type Pointer interface {
	Location() session.Point
}

// Screens resolves the bounds of the monitor containing a point.
type Screens interface {
	MonitorAt(p session.Point) (session.Rect, bool)
}

// Commands runs the side effects of tray menu items.
type Commands interface {
	OpenConfig() error
	Reload() error
}

// Submitter queues completion jobs. It returns false when the job was refused.
type Submitter interface {
	Submit(ctx context.Context, job worker.Job, cb worker.ResultCallback) bool
}

// Tooltip reflects the loop's busy state, typically in the tray.
type Tooltip interface {
	SetTooltip(text string)
}

// Presenter draws snapshots and reports user input collected since the last call.
type Presenter interface {
	Render(snap session.Snapshot)
	Input() Input
}

// Input is the raw user input gathered between two ticks.
type Input struct {
	Keys    []string       // key names pressed, e.g. "S"
	Clicked *int           // index of the clicked action button
	Escape  bool           // Escape pressed
	Cursor  *session.Point // pointer position, sampled from Pointer when nil
	// Dismissed is the text of the error modal the user closed.
	Dismissed string
	// Placement reports where the window really landed after a show.
	Placement *Placement
}

// Placement pairs the position the loop asked for with the window's actual
// top-left corner.
type Placement struct {
	Requested session.Point
	Actual    session.Point
}

// Config wires the loop's collaborators. Catalog, Clipboard, Pointer and Pool are required.
type Config struct {
	Catalog   *actions.Catalog
	Clipboard ClipboardWriter
	Pointer   Pointer
	Screens   Screens
	Commands  Commands
	Pool      Submitter
	Tooltip   Tooltip

	// HotkeyConfigured switches from show-on-copy to show-on-hotkey.
	HotkeyConfigured bool
	Deadline         time.Duration
	WindowSize       session.Size
	// ResultBuffer sizes the result channel; use the pool size + 1.
	ResultBuffer int
	TickInterval time.Duration

	Exit  func(code int)
	Now   func() time.Time
	NewID func() string
}

// Loop is the single-threaded coordinator owning the popup session.
type Loop struct {
	cfg     Config
	baseCtx context.Context
	state   session.Session
	views   []session.ActionView

	pending string // request ID awaiting a result
	focus   bool

	clipboardCh chan messages.ClipboardChanged
	hotkeyCh    chan messages.HotkeyPressed
	menuCh      chan messages.MenuCommand
	results     chan messages.CompletionResult
	wake        chan struct{}
}

// New creates a loop in the Hidden state.
func New(cfg Config) *Loop {
	if cfg.WindowSize.Width <= 0 || cfg.WindowSize.Height <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = worker.DefaultDeadline
	}
	if cfg.ResultBuffer <= 0 {
		cfg.ResultBuffer = 2
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Exit == nil {
		cfg.Exit = func(int) {}
	}

	l := &Loop{
		cfg:         cfg,
		baseCtx:     context.Background(),
		clipboardCh: make(chan messages.ClipboardChanged, 1),
		hotkeyCh:    make(chan messages.HotkeyPressed, 4),
		menuCh:      make(chan messages.MenuCommand, 8),
		results:     make(chan messages.CompletionResult, cfg.ResultBuffer),
		wake:        make(chan struct{}, 1),
	}
	l.state.Size = cfg.WindowSize
	if cfg.Catalog != nil {
		l.views = cfg.Catalog.Views()
	}
	return l
}

// PostClipboard records a clipboard change. Only the newest unprocessed change is kept.
func (l *Loop) PostClipboard(msg messages.ClipboardChanged) {
	messages.OfferLatest(l.clipboardCh, msg)
	l.Wake()
}

// PostHotkey records a hotkey press. Presses beyond the buffer are coalesced.
func (l *Loop) PostHotkey(msg messages.HotkeyPressed) {
	if !messages.OfferDrop(l.hotkeyCh, msg) {
		log.Printf("Hotkey: press coalesced, loop busy")
	}
	l.Wake()
}

// PostMenu records a tray command. It blocks while the menu buffer is full.
func (l *Loop) PostMenu(msg messages.MenuCommand) {
	l.menuCh <- msg
	l.Wake()
}

// Wake requests an immediate tick from Run.
func (l *Loop) Wake() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run pumps ticks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context, p Presenter) error {
	l.baseCtx = ctx
	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-l.wake:
		}
		p.Render(l.Tick(p.Input()))
	}
}

// Session returns a copy of the current state, for inspection.
func (l *Loop) Session() session.Session { return l.state }

// Pending returns the request ID awaiting a result, if any.
func (l *Loop) Pending() string { return l.pending }

// Tick advances the state machine by one step. It never blocks.
func (l *Loop) Tick(in Input) session.Snapshot {
	l.focus = false
	l.applyPlacement(in.Placement)

	if quit := l.drainMenu(); quit {
		return l.snapshot()
	}
	l.drainClipboard()
	if l.cfg.HotkeyConfigured {
		l.drainHotkey()
	}
	if l.state.Visible && !l.state.Loading {
		l.handleTrigger(in)
	}
	l.drainResults()

	if in.Escape && !l.state.Loading && l.state.Visible {
		log.Printf("Escape pressed, hiding")
		l.hide()
	}
	if l.state.Visible && !l.state.Loading {
		cursor := l.cursor(in)
		if !session.RectAt(l.state.Position, l.state.Size).Expand(LeaveMargin).Contains(cursor) {
			l.hide()
		}
	}
	if in.Dismissed != "" && l.state.ErrorMessage != nil && *l.state.ErrorMessage == in.Dismissed {
		l.state.ErrorMessage = nil
	}
	return l.snapshot()
}

// applyPlacement adopts the real window position so the pointer-leave check
// tests the rectangle the user sees. Reports for an older show are ignored.
func (l *Loop) applyPlacement(p *Placement) {
	if p == nil || !l.state.Visible || p.Requested != l.state.Position {
		return
	}
	if p.Actual != p.Requested {
		log.Printf("Window placed at %d,%d instead of %d,%d", p.Actual.X, p.Actual.Y, p.Requested.X, p.Requested.Y)
	}
	l.state.Position = p.Actual
}

func (l *Loop) snapshot() session.Snapshot {
	snap := l.state.Snapshot(l.views)
	snap.FocusRequested = l.focus
	return snap
}

func (l *Loop) cursor(in Input) session.Point {
	if in.Cursor != nil {
		return *in.Cursor
	}
	return l.cfg.Pointer.Location()
}

func (l *Loop) drainMenu() (quit bool) {
	for {
		select {
		case msg := <-l.menuCh:
			log.Printf("Menu: %s", msg.Command)
			switch msg.Command {
			case messages.CommandQuit:
				l.cfg.Exit(0)
				return true
			case messages.CommandConfigure:
				if l.cfg.Commands != nil {
					l.commandError(l.cfg.Commands.OpenConfig())
				}
			case messages.CommandReload:
				if l.cfg.Commands != nil {
					l.commandError(l.cfg.Commands.Reload())
				}
			case messages.CommandShow:
				if !l.state.Visible {
					l.show(l.cfg.Pointer.Location())
				}
			}
		default:
			return false
		}
	}
}

// commandError surfaces a failed menu command, showing the window if needed.
func (l *Loop) commandError(err error) {
	if err == nil {
		return
	}
	log.Printf("Menu command failed: %v", err)
	if !l.state.Visible {
		l.show(l.cfg.Pointer.Location())
	}
	l.raise(msgErrorPrefix + err.Error())
}

func (l *Loop) drainClipboard() {
	var last *messages.ClipboardChanged
drain:
	for {
		select {
		case msg := <-l.clipboardCh:
			last = &msg
		default:
			break drain
		}
	}
	if last == nil {
		return
	}
	text := last.Text
	l.state.ClipboardText = &text
	log.Printf("Clipboard changed: %s", logutil.Sanitize(text))
	if !l.cfg.HotkeyConfigured {
		l.show(last.Cursor)
	}
}

func (l *Loop) drainHotkey() {
	pressed := false
drain:
	for {
		select {
		case <-l.hotkeyCh:
			pressed = true
		default:
			break drain
		}
	}
	if pressed {
		l.show(l.cfg.Pointer.Location())
	}
}

func (l *Loop) handleTrigger(in Input) {
	if l.cfg.Catalog == nil {
		return
	}
	list := l.cfg.Catalog.Actions()
	idx, ok := l.cfg.Catalog.MatchKey(in.Keys)
	if !ok && in.Clicked != nil && *in.Clicked >= 0 && *in.Clicked < len(list) {
		idx, ok = *in.Clicked, true
	}
	if ok {
		l.trigger(list[idx])
	}
}

func (l *Loop) trigger(a *actions.Action) {
	if l.state.ClipboardText == nil {
		log.Printf("Trigger %s: %v", a.Label, ErrNoClipboardText)
		l.raise(msgNoClipboard)
		return
	}
	if !a.Compiled() {
		log.Printf("Trigger %s: %v", a.Label, actions.ErrNotCompiled)
		l.raise(msgErrorPrefix + a.Label + ": " + actions.ErrNotCompiled.Error())
		return
	}

	input := *l.state.ClipboardText
	id := l.cfg.NewID()
	job := worker.Job{
		ID:        id,
		Action:    a.Label,
		Provider:  a.Provider,
		Model:     a.Model,
		Prompt:    actions.BuildPrompt(a.Prompt, input),
		InputLen:  len([]rune(input)),
		Paste:     a.Paste,
		Deadline:  l.cfg.Deadline,
		Completer: a.Client(),
	}

	results := l.results
	wake := l.Wake
	submitted := l.cfg.Pool.Submit(l.baseCtx, job, func(res messages.CompletionResult) {
		results <- res
		wake()
	})
	if !submitted {
		log.Printf("Trigger %s: pool full, request %s refused", a.Label, id)
		l.raise(msgPoolFull)
		return
	}

	log.Printf("Trigger %s: request %s submitted", a.Label, id)
	l.pending = id
	l.state.Loading = true
	l.state.LoadingSince = l.cfg.Now()
	l.state.CurrentAction = a.Label
	l.setTooltip(tooltipBusyPref + a.Label + "...")
}

func (l *Loop) drainResults() {
	for {
		select {
		case res := <-l.results:
			l.handleResult(res)
		default:
			return
		}
	}
}

func (l *Loop) handleResult(res messages.CompletionResult) {
	if res.RequestID == "" || res.RequestID != l.pending {
		log.Printf("handleResult: dropping stale result for request %q (pending %q)", res.RequestID, l.pending)
		return
	}
	l.pending = ""
	l.state.Loading = false
	l.state.LoadingSince = time.Time{}
	l.state.CurrentAction = ""
	l.setTooltip(tooltipIdle)

	if res.Err != nil {
		log.Printf("handleResult: request %s failed: %v", res.RequestID, res.Err)
		l.raise(msgErrorPrefix + res.Err.Error())
		return
	}

	text := res.Text
	l.state.ClipboardText = &text
	log.Printf("handleResult: request %s succeeded: %s", res.RequestID, logutil.Sanitize(text))
	if !res.Paste {
		return
	}
	if err := l.cfg.Clipboard.Write(text); err != nil {
		log.Printf("handleResult: paste failed: %v", err)
		l.raise(msgPasteFailed + err.Error())
	}
}

func (l *Loop) show(cursor session.Point) {
	var monitor session.Rect
	var ok bool
	if l.cfg.Screens != nil {
		monitor, ok = l.cfg.Screens.MonitorAt(cursor)
	}
	l.state.Position = session.Place(cursor, session.Point{X: CursorOffset, Y: CursorOffset}, l.state.Size, monitor, ok)
	l.state.Visible = true
	l.focus = true
}

// hide clears visibility and the modal; clipboard text and loading survive.
func (l *Loop) hide() {
	l.state.Visible = false
	l.state.ErrorMessage = nil
}

// raise sets the error modal; a newer error replaces an unresolved one.
func (l *Loop) raise(msg string) {
	l.state.ErrorMessage = &msg
}

func (l *Loop) setTooltip(text string) {
	if l.cfg.Tooltip != nil {
		l.cfg.Tooltip.SetTooltip(text)
	}
}
