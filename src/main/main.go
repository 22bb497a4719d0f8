package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"clipboard-buddy/src/clipboard"
	"clipboard-buddy/src/config"
	"clipboard-buddy/src/eventloop"
	"clipboard-buddy/src/hotkey"
	"clipboard-buddy/src/messages"
	"clipboard-buddy/src/notification"
	"clipboard-buddy/src/popup"
	"clipboard-buddy/src/runtimeinit"
	"clipboard-buddy/src/screen"
	"clipboard-buddy/src/singleinstance"
	"clipboard-buddy/src/tray"
	"clipboard-buddy/src/worker"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

type mainOptions struct {
	configPath   string
	startDelayMs int
	verbose      bool
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	// fyne must own the main OS thread
	runtime.LockOSThread()

	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "clipbud",
		Short:         "Clipboard Buddy: run LLM actions on copied text",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResident(opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to config file (default ~/.clipbud/config.yml)")
	cmd.Flags().IntVar(&opts.startDelayMs, "start-delay", 0, "Milliseconds to wait before starting")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Mirror logs to stderr")
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags (-config) to cobra's --config.
func normalizeLegacyArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 1; i < len(out); i++ {
		for _, name := range []string{"config", "start-delay", "verbose"} {
			single := "-" + name
			if out[i] == single || strings.HasPrefix(out[i], single+"=") {
				out[i] = "-" + out[i]
			}
		}
	}
	return out
}

func runResident(opts *mainOptions) error {
	if opts.startDelayMs > 0 {
		time.Sleep(time.Duration(opts.startDelayMs) * time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := singleinstance.NewServer()
	if err := server.Start(ctx); err != nil {
		if errors.Is(err, singleinstance.ErrAlreadyRunning) {
			notification.ShowBlockingError("Clipboard Buddy", "Clipboard Buddy is already running.")
		}
		return err
	}
	defer server.Close()

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:    config.LoadOptions{PathOverride: opts.configPath},
		CreateUserData: true,
		Verbose:        opts.verbose,
		InitClipboard:  true,
	})
	if err != nil {
		notification.Startup(err)
		return err
	}
	defer rt.Close()
	cfg := rt.Config
	logMonitorConfiguration()

	presenter, err := popup.New(popup.Options{
		Version: Version,
		Theme:   cfg.Theme,
		Size:    eventloop.DefaultWindowSize,
		Actions: rt.Catalog.Views(),
	})
	if err != nil {
		notification.Startup(err)
		return err
	}

	var recorder worker.Recorder
	if rt.History != nil {
		recorder = rt.History
	}
	pool := worker.New(cfg.Workers, recorder)
	defer pool.Close()

	var loop *eventloop.Loop
	trayIcon, err := tray.New(tray.Config{
		Title:     "Clipboard Buddy",
		OnCommand: func(m messages.MenuCommand) { loop.PostMenu(m) },
	})
	if err != nil {
		return err
	}

	var stopOnce sync.Once
	shutdown := func() {
		stopOnce.Do(func() {
			cancel()
			if cfg.Hotkey != "" {
				hotkey.Stop()
			}
			trayIcon.Destroy()
			presenter.Quit()
		})
	}

	loop = eventloop.New(eventloop.Config{
		Catalog:   rt.Catalog,
		Clipboard: clipboard.Writer{},
		Pointer:   screen.Desktop{},
		Screens:   screen.Desktop{},
		Commands: &desktopCommands{
			configPath: cfg.Path,
			verbose:    opts.verbose,
			exit:       shutdown,
		},
		Pool:             pool,
		Tooltip:          trayIcon,
		HotkeyConfigured: cfg.Hotkey != "",
		Deadline:         time.Duration(cfg.CompletionDeadlineSec) * time.Second,
		ResultBuffer:     pool.Size() + 1,
		Exit: func(code int) {
			log.Printf("Exiting with code %d", code)
			shutdown()
			_ = server.Close()
			_ = rt.Close()
			os.Exit(code)
		},
	})
	presenter.SetWake(loop.Wake)

	if cfg.Hotkey != "" {
		combo := cfg.Hotkey
		if err := hotkey.Listen(combo, func() {
			loop.PostHotkey(messages.HotkeyPressed{Combo: combo})
		}); err != nil {
			notification.Startup(err)
			return err
		}
	}

	trayIcon.Register()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		clipboard.Watch(gctx, screen.Desktop{}, loop.PostClipboard)
		return nil
	})
	g.Go(func() error {
		return loop.Run(gctx, presenter)
	})
	g.Go(func() error {
		return serveResident(gctx, server, loop.PostMenu)
	})
	g.Go(func() error {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			log.Printf("Received %v, shutting down", sig)
			shutdown()
		case <-gctx.Done():
		}
		return nil
	})

	log.Printf("Clipboard Buddy %s started (hotkey %q, %d workers)", Version, cfg.Hotkey, pool.Size())
	presenter.Run()

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Stopped with error: %v", err)
		return err
	}
	return nil
}
