package singleinstance

// This file defines the API for single-instance ownership and remote commands.

import (
	"context"
	"errors"
	"strings"
)

// ErrAlreadyRunning is returned by Server.Start when another resident owns the port.
var ErrAlreadyRunning = errors.New("clipboard buddy is already running")

// Verbs a client may send to the resident.
const (
	VerbShow      = "SHOW"
	VerbConfigure = "CONFIGURE"
	VerbReload    = "RELOAD"
	VerbQuit      = "QUIT"
)

// ValidVerb reports whether v is a known verb.
func ValidVerb(v string) bool {
	switch strings.ToUpper(v) {
	case VerbShow, VerbConfigure, VerbReload, VerbQuit:
		return true
	}
	return false
}

// Server owns the TCP endpoint and answers client commands.
type Server interface {
	// Start binds the first port of the configured range; a busy port means another resident.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	Request() Request
	RespondSuccess(text string) error
	RespondError(msg string) error
	Close() error
}

// Request is a single client command.
type Request struct {
	Verb string
}

// Client delivers commands to a resident.
type Client interface {
	// Send scans the port range for a resident and delivers verb.
	// If no resident is found, returns delegated=false, err=nil.
	Send(ctx context.Context, verb string) (delegated bool, reply string, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
