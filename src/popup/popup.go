package popup

import (
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"clipboard-buddy/src/eventloop"
	"clipboard-buddy/src/session"
)

// AppID identifies the fyne application for preferences storage.
const AppID = "io.github.clipbud"

const noClipboardText = "❌ No clipboard text found."

// Options configures the popup window.
type Options struct {
	Version string
	Theme   string
	Size    session.Size
	Actions []session.ActionView
}

// Presenter renders loop snapshots into a borderless fyne window and
// collects user input for the next tick.
type Presenter struct {
	app  fyne.App
	win  fyne.Window
	size session.Size

	mu      sync.Mutex
	pending eventloop.Input
	wake    func()

	// touched only on the fyne main goroutine
	visible    bool
	requested  session.Point // position the loop asked for
	landed     session.Point // position the window really has
	text       *widget.Entry
	status     *widget.Label
	progress   *widget.ProgressBarInfinite
	busy       *fyne.Container
	errDialog  dialog.Dialog
	shownError string
	closingErr bool
}

// New creates the application and its hidden popup window.
func New(opts Options) (*Presenter, error) {
	th, err := ThemeFor(opts.Theme)
	if err != nil {
		return nil, err
	}
	if opts.Size.Width <= 0 || opts.Size.Height <= 0 {
		opts.Size = eventloop.DefaultWindowSize
	}

	a := app.NewWithID(AppID)
	if th != nil {
		a.Settings().SetTheme(th)
	}

	var w fyne.Window
	if drv, ok := a.Driver().(desktop.Driver); ok {
		w = drv.CreateSplashWindow()
	} else {
		w = a.NewWindow("Clipboard Buddy")
	}

	p := &Presenter{app: a, win: w, size: opts.Size}
	p.build(opts)
	return p, nil
}

func (p *Presenter) build(opts Options) {
	title := widget.NewLabelWithStyle(fmt.Sprintf("📋 Clipboard Buddy v%s", opts.Version), fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	p.text = widget.NewMultiLineEntry()
	p.text.Wrapping = fyne.TextWrapWord
	p.text.SetText(noClipboardText)
	p.text.Disable()

	buttons := container.NewHBox()
	for i, a := range opts.Actions {
		idx := i
		buttons.Add(widget.NewButton(a.ButtonText, func() { p.click(idx) }))
	}

	p.status = widget.NewLabel("")
	p.progress = widget.NewProgressBarInfinite()
	p.busy = container.NewVBox(p.status, p.progress)
	p.busy.Hide()

	bottom := container.NewVBox(p.busy, container.NewHScroll(buttons))
	p.win.SetContent(container.NewBorder(title, bottom, nil, nil, p.text))
	p.win.Resize(fyne.NewSize(float32(p.size.Width), float32(p.size.Height)))
	p.win.SetFixedSize(true)

	p.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			p.update(func(in *eventloop.Input) { in.Escape = true })
			return
		}
		p.update(func(in *eventloop.Input) { in.Keys = append(in.Keys, string(ev.Name)) })
	})
}

// SetWake registers the function called after input arrives.
func (p *Presenter) SetWake(wake func()) {
	p.mu.Lock()
	p.wake = wake
	p.mu.Unlock()
}

func (p *Presenter) click(idx int) {
	p.update(func(in *eventloop.Input) { in.Clicked = &idx })
}

func (p *Presenter) update(f func(in *eventloop.Input)) {
	p.mu.Lock()
	f(&p.pending)
	wake := p.wake
	p.mu.Unlock()
	if wake != nil {
		wake()
	}
}

// Input returns and clears the input gathered since the last call.
func (p *Presenter) Input() eventloop.Input {
	p.mu.Lock()
	defer p.mu.Unlock()
	in := p.pending
	p.pending = eventloop.Input{}
	return in
}

// Render schedules snap onto the fyne main goroutine.
func (p *Presenter) Render(snap session.Snapshot) {
	fyne.Do(func() { p.apply(snap) })
}

func (p *Presenter) apply(snap session.Snapshot) {
	if snap.HasClipboardText {
		if p.text.Text != snap.ClipboardText {
			p.text.SetText(snap.ClipboardText)
		}
	} else if p.text.Text != noClipboardText {
		p.text.SetText(noClipboardText)
	}

	if snap.Loading {
		elapsed := time.Duration(0)
		if !snap.LoadingSince.IsZero() {
			elapsed = time.Since(snap.LoadingSince).Truncate(time.Second)
		}
		p.status.SetText(fmt.Sprintf("⏳ %s... %s", snap.CurrentAction, elapsed))
		if !p.busy.Visible() {
			p.busy.Show()
			p.progress.Start()
		}
	} else if p.busy.Visible() {
		p.progress.Stop()
		p.busy.Hide()
	}

	p.applyError(snap.ErrorMessage)

	switch {
	case snap.Visible && !p.visible:
		p.win.CenterOnScreen()
		p.win.Show()
		p.visible = true
		p.place(snap.Position)
	case snap.Visible && snap.Position != p.requested && snap.Position != p.landed:
		p.place(snap.Position)
	case !snap.Visible && p.visible:
		p.win.Hide()
		p.visible = false
	}
	if snap.FocusRequested {
		p.win.RequestFocus()
	}
}

// place moves the window to pos where the platform allows it and tells the
// loop where the window really is.
func (p *Presenter) place(pos session.Point) {
	p.requested = pos
	got, ok := p.landing(pos)
	if !ok {
		p.landed = pos
		return
	}
	p.landed = got
	log.Printf("Popup: requested %d,%d, window at %d,%d", pos.X, pos.Y, got.X, got.Y)
	p.update(func(in *eventloop.Input) {
		in.Placement = &eventloop.Placement{Requested: pos, Actual: got}
	})
}

func (p *Presenter) applyError(msg string) {
	if msg == p.shownError {
		return
	}
	if p.errDialog != nil {
		p.closingErr = true
		p.errDialog.Hide()
		p.closingErr = false
		p.errDialog = nil
	}
	p.shownError = msg
	if msg == "" {
		return
	}
	d := dialog.NewInformation("Error", msg, p.win)
	d.SetOnClosed(func() {
		if p.closingErr {
			return
		}
		p.errDialog = nil
		p.shownError = ""
		p.update(func(in *eventloop.Input) { in.Dismissed = msg })
	})
	p.errDialog = d
	d.Show()
}

// Run blocks on the fyne main loop. It must be called from the main goroutine.
func (p *Presenter) Run() {
	p.app.Run()
}

// Quit stops the fyne main loop.
func (p *Presenter) Quit() {
	fyne.Do(p.app.Quit)
}

var _ eventloop.Presenter = (*Presenter)(nil)
