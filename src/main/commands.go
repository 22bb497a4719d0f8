package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// reloadDelayMs gives the old process time to release the single-instance port.
const reloadDelayMs = 500

// startProcess launches a detached command.
var startProcess = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// desktopCommands implements the Configure and Reload menu items.
type desktopCommands struct {
	configPath string
	verbose    bool
	exit       func()
}

// OpenConfig opens the config file with the platform's default handler.
func (c *desktopCommands) OpenConfig() error {
	name, args := openCommand(runtime.GOOS, c.configPath)
	log.Printf("Opening config: %s %v", name, args)
	if err := startProcess(name, args...); err != nil {
		return fmt.Errorf("failed to open config %s: %w", c.configPath, err)
	}
	return nil
}

// Reload starts a fresh copy of this executable and stops the current one.
func (c *desktopCommands) Reload() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	args := reloadArgs(c.configPath, c.verbose)
	log.Printf("Reloading: %s %v", exe, args)
	if err := startProcess(exe, args...); err != nil {
		return fmt.Errorf("failed to restart: %w", err)
	}
	if c.exit != nil {
		c.exit()
	}
	return nil
}

func openCommand(goos, path string) (string, []string) {
	switch goos {
	case "windows":
		return "cmd", []string{"/c", "start", "", path}
	case "darwin":
		return "open", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}

func reloadArgs(configPath string, verbose bool) []string {
	args := []string{"--start-delay", strconv.Itoa(reloadDelayMs)}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if verbose {
		args = append(args, "--verbose")
	}
	return args
}
