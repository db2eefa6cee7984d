// Package mux provides a read-only query abstraction over terminal
// multiplexers (tmux today, zellij later).
//
// Every method is a short synchronous round trip to the multiplexer.
// Calls fail with an error whenever the binary is absent or the queried
// object is gone; callers in the resolution heuristics treat any error as
// "no result" and fall through to the next tier.
package mux

import (
	"context"

	"github.com/agentd/agentd/internal/model"
)

// Multiplexer abstracts terminal multiplexer queries.
type Multiplexer interface {
	// Name returns the multiplexer name (e.g., "tmux").
	Name() string

	// ListSessions returns all sessions with their created/last-attached
	// timestamps.
	ListSessions(ctx context.Context) ([]model.Session, error)

	// ListClients returns all attached clients with their owning session
	// and last activity timestamp.
	ListClients(ctx context.Context) ([]model.Client, error)

	// ListPanes returns the panes of one session with their index, active
	// flag, and current foreground command.
	ListPanes(ctx context.Context, session string) ([]model.Pane, error)

	// PaneExists reports whether a target pane currently exists.
	// Any query failure counts as "does not exist".
	PaneExists(ctx context.Context, target string) bool

	// PaneWorkingDir resolves a pane's current working directory.
	PaneWorkingDir(ctx context.Context, target string) (string, error)

	// SelfPane resolves the pane the calling process runs in, as
	// "session:window.pane". Fails when the process is not running inside
	// the multiplexer.
	SelfPane(ctx context.Context) (string, error)
}
