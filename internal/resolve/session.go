// Package resolve picks the pane a job should run in and notify.
//
// It layers two pieces: session heuristics that infer "where is the user
// working right now" from multiplexer state, and a target resolver that
// ranks explicit caller intent above those heuristics. All multiplexer
// failures are absorbed here — a heuristic that cannot answer returns the
// empty string and the caller falls through to the next tier.
package resolve

import (
	"context"

	"github.com/agentd/agentd/internal/model"
	"github.com/agentd/agentd/internal/mux"
)

// interactiveShells are the foreground commands considered safe to
// interrupt with a completion notification. A pane running anything else
// (an editor, a REPL, a pager) is mid-task and should not be written to.
var interactiveShells = map[string]bool{
	"bash": true,
	"zsh":  true,
	"fish": true,
	"sh":   true,
	"nu":   true,
}

// AutoSession infers the session the user is most likely looking at.
// Fallback chain, first tier with any result wins:
//
//  1. session of the client with the most recent activity
//  2. most recently attached session (never-attached sessions excluded)
//  3. most recently created session
//
// Returns "" when the multiplexer is unavailable or has no sessions.
func AutoSession(ctx context.Context, m mux.Multiplexer) string {
	// Tier 1: client activity. An attached client is the strongest signal
	// of where the user actually is.
	if clients, err := m.ListClients(ctx); err == nil && len(clients) > 0 {
		best := clients[0]
		for _, c := range clients[1:] {
			if c.Activity > best.Activity {
				best = c
			}
		}
		if best.Session != "" {
			return best.Session
		}
	}

	sessions, err := m.ListSessions(ctx)
	if err != nil || len(sessions) == 0 {
		return ""
	}

	// Tier 2: last attach time. Zero means never attached and is excluded
	// outright rather than ranked as infinitely old.
	var attached *model.Session
	for i := range sessions {
		s := &sessions[i]
		if s.LastAttached == 0 {
			continue
		}
		if attached == nil || s.LastAttached > attached.LastAttached {
			attached = s
		}
	}
	if attached != nil {
		return attached.Name
	}

	// Tier 3: creation time.
	best := sessions[0]
	for _, s := range sessions[1:] {
		if s.Created > best.Created {
			best = s
		}
	}
	return best.Name
}

// ActivePane returns the active pane of a session as a target string,
// the first listed pane when none is flagged active, or "" when the
// session has no panes.
func ActivePane(ctx context.Context, m mux.Multiplexer, session string) string {
	panes, err := m.ListPanes(ctx, session)
	if err != nil || len(panes) == 0 {
		return ""
	}
	for _, p := range panes {
		if p.Active {
			return p.Target
		}
	}
	return panes[0].Target
}

// ShellFriendlyPane returns the first pane of a session whose foreground
// command is an interactive shell, so notifications do not land inside a
// non-shell program. Falls back to the first listed pane when no shell
// pane exists, and "" when the session has no panes.
func ShellFriendlyPane(ctx context.Context, m mux.Multiplexer, session string) string {
	panes, err := m.ListPanes(ctx, session)
	if err != nil || len(panes) == 0 {
		return ""
	}
	for _, p := range panes {
		if interactiveShells[p.Command] {
			return p.Target
		}
	}
	return panes[0].Target
}
