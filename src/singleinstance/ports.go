package singleinstance

import (
	"os"
	"strconv"
)

const (
	defaultPortStart = 49600
	defaultPortEnd   = 49610
)

// getPortRange returns the configured TCP port range. Environment variables:
// CLIPBUD_PORT_START and CLIPBUD_PORT_END (integers, inclusive).
// Falls back to defaults when unset/invalid, orders the bounds and clamps to [1024, 65535].
func getPortRange() (int, int) {
	start := defaultPortStart
	end := defaultPortEnd
	if v := os.Getenv("CLIPBUD_PORT_START"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			start = n
		}
	}
	if v := os.Getenv("CLIPBUD_PORT_END"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			end = n
		}
	}
	if end < start {
		start, end = end, start
	}
	if start < 1024 {
		start = 1024
	}
	if end > 65535 {
		end = 65535
	}
	return start, end
}

// PortRange exposes the current effective port range for logging.
func PortRange() (int, int) { return getPortRange() }
