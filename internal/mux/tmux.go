package mux

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/agentd/agentd/internal/model"
)

// defaultCommandTimeout bounds every tmux round trip so that a wedged
// server degrades to "no result" instead of hanging the caller.
const defaultCommandTimeout = 5 * time.Second

// Tmux implements the Multiplexer interface for tmux.
type Tmux struct {
	// Timeout bounds each tmux invocation; 0 means defaultCommandTimeout.
	Timeout time.Duration
}

// NewTmux creates a new tmux multiplexer.
func NewTmux() *Tmux {
	return &Tmux{}
}

// Name returns "tmux".
func (t *Tmux) Name() string {
	return "tmux"
}

// ListSessions returns all tmux sessions with their timestamps.
func (t *Tmux) ListSessions(ctx context.Context) ([]model.Session, error) {
	// Format: session_name\tsession_created\tsession_last_attached\tsession_attached
	format := "#{session_name}\t#{session_created}\t#{session_last_attached}\t#{session_attached}"
	out, err := t.run(ctx, "list-sessions", "-F", format)
	if err != nil {
		return nil, fmt.Errorf("tmux list-sessions: %w", err)
	}

	var sessions []model.Session
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 4)
		if len(parts) != 4 {
			continue
		}
		created, _ := strconv.ParseInt(parts[1], 10, 64)
		// session_last_attached is empty on sessions never attached;
		// ParseInt then yields the zero sentinel.
		lastAttached, _ := strconv.ParseInt(parts[2], 10, 64)
		sessions = append(sessions, model.Session{
			Name:         parts[0],
			Created:      created,
			LastAttached: lastAttached,
			Attached:     parts[3] == "1",
		})
	}
	return sessions, nil
}

// ListClients returns all attached tmux clients.
func (t *Tmux) ListClients(ctx context.Context) ([]model.Client, error) {
	format := "#{client_session}\t#{client_activity}"
	out, err := t.run(ctx, "list-clients", "-F", format)
	if err != nil {
		return nil, fmt.Errorf("tmux list-clients: %w", err)
	}

	var clients []model.Client
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		activity, _ := strconv.ParseInt(parts[1], 10, 64)
		clients = append(clients, model.Client{Session: parts[0], Activity: activity})
	}
	return clients, nil
}

// ListPanes returns the panes of one tmux session.
func (t *Tmux) ListPanes(ctx context.Context, session string) ([]model.Pane, error) {
	format := "#{window_index}.#{pane_index}\t#{pane_active}\t#{pane_current_command}"
	out, err := t.run(ctx, "list-panes", "-s", "-t", session, "-F", format)
	if err != nil {
		return nil, fmt.Errorf("tmux list-panes -t %s: %w", session, err)
	}

	var panes []model.Pane
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		idx := parts[0]
		dotIdx := strings.IndexByte(idx, '.')
		if dotIdx < 0 {
			continue
		}
		window, err := strconv.Atoi(idx[:dotIdx])
		if err != nil {
			continue
		}
		pane, err := strconv.Atoi(idx[dotIdx+1:])
		if err != nil {
			continue
		}
		panes = append(panes, model.Pane{
			Target:  fmt.Sprintf("%s:%s", session, idx),
			Session: session,
			Window:  window,
			Pane:    pane,
			Active:  parts[1] == "1",
			Command: parts[2],
		})
	}
	return panes, nil
}

// PaneExists reports whether a target pane currently exists.
func (t *Tmux) PaneExists(ctx context.Context, target string) bool {
	if target == "" {
		return false
	}
	_, err := t.run(ctx, "list-panes", "-t", target)
	return err == nil
}

// PaneWorkingDir resolves a pane's current working directory.
func (t *Tmux) PaneWorkingDir(ctx context.Context, target string) (string, error) {
	out, err := t.run(ctx, "display-message", "-p", "-t", target, "#{pane_current_path}")
	if err != nil {
		return "", fmt.Errorf("tmux display-message -t %s: %w", target, err)
	}
	dir := strings.TrimSpace(out)
	if dir == "" {
		return "", fmt.Errorf("empty working directory for pane %q", target)
	}
	return dir, nil
}

// SelfPane resolves the pane this process runs in via $TMUX_PANE.
// The resolved target is re-checked for existence: a stale TMUX_PANE left
// over from a dead pane must not win over the heuristics.
func (t *Tmux) SelfPane(ctx context.Context) (string, error) {
	paneID := os.Getenv("TMUX_PANE")
	if paneID == "" {
		return "", fmt.Errorf("not running inside tmux (TMUX_PANE unset)")
	}
	out, err := t.run(ctx, "display-message", "-p", "-t", paneID,
		"#{session_name}:#{window_index}.#{pane_index}")
	if err != nil {
		return "", fmt.Errorf("tmux display-message -t %s: %w", paneID, err)
	}
	target := strings.TrimSpace(out)
	if target == "" || !t.PaneExists(ctx, target) {
		return "", fmt.Errorf("self pane %q no longer exists", target)
	}
	return target, nil
}

// run executes a tmux command and returns its stdout.
func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	timeout := t.Timeout
	if timeout == 0 {
		timeout = defaultCommandTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "tmux", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("%w: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
