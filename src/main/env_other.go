//go:build !windows

package main

import (
	"log"

	"clipboard-buddy/src/screen"
)

func enableDPIAwareness() {}

func logMonitorConfiguration() {
	if b, err := screen.VirtualBounds(); err == nil {
		log.Printf("MONITOR: %d displays, virtual screen %v", len(screen.Displays()), b)
	}
}
