package mux

import (
	"fmt"
	"os"
	"os/exec"
)

// Detect picks the active terminal multiplexer. Running inside one (the
// TMUX or ZELLIJ env var is set) wins; otherwise a reachable tmux server
// is good enough, since jobs can target sessions the caller is not
// attached to.
func Detect() (Multiplexer, error) {
	switch {
	case os.Getenv("TMUX") != "":
		return NewTmux(), nil
	case os.Getenv("ZELLIJ") != "":
		return nil, fmt.Errorf("zellij support is not yet implemented")
	case tmuxServerRunning():
		return NewTmux(), nil
	}
	return nil, fmt.Errorf("no supported terminal multiplexer detected (set $TMUX or install tmux)")
}

// FromName creates a Multiplexer by name, for the --mux flag.
func FromName(name string) (Multiplexer, error) {
	switch name {
	case "tmux":
		return NewTmux(), nil
	case "zellij":
		return nil, fmt.Errorf("zellij support is not yet implemented")
	default:
		return nil, fmt.Errorf("unknown multiplexer: %q (supported: tmux)", name)
	}
}

func tmuxServerRunning() bool {
	if _, err := exec.LookPath("tmux"); err != nil {
		return false
	}
	return exec.Command("tmux", "list-sessions").Run() == nil
}
