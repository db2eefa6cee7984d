package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Target identifies a single multiplexer pane as session:window.pane.
type Target struct {
	// Session is the session name.
	Session string `json:"session"`
	// Window is the window index or window name.
	Window string `json:"window"`
	// Pane is the pane index.
	Pane int `json:"pane"`
}

// String renders the canonical target form (e.g., "dev:0.1", "work:cli.0").
func (t Target) String() string {
	return fmt.Sprintf("%s:%s.%d", t.Session, t.Window, t.Pane)
}

// ParseTarget parses a target string "session:window.pane". The window
// part may be an index or a name; the pane part must be an index. Session
// names may themselves contain colons; the last colon wins.
func ParseTarget(target string) (Target, error) {
	colonIdx := strings.LastIndex(target, ":")
	if colonIdx <= 0 {
		return Target{}, fmt.Errorf("invalid target %q: missing ':'", target)
	}

	session := target[:colonIdx]
	rest := target[colonIdx+1:]

	dotIdx := strings.LastIndex(rest, ".")
	if dotIdx <= 0 {
		return Target{}, fmt.Errorf("invalid target %q: missing 'window.pane'", target)
	}

	pane, err := strconv.Atoi(rest[dotIdx+1:])
	if err != nil {
		return Target{}, fmt.Errorf("invalid pane index in %q: %w", target, err)
	}

	return Target{Session: session, Window: rest[:dotIdx], Pane: pane}, nil
}

// SessionName extracts the session component of a target string without
// validating the window.pane suffix. Returns the input unchanged when no
// colon is present.
func SessionName(target string) string {
	if idx := strings.LastIndex(target, ":"); idx > 0 {
		return target[:idx]
	}
	return target
}

// Session describes one multiplexer session during heuristic evaluation.
type Session struct {
	// Name is the session name.
	Name string `json:"name"`
	// Created is the session creation time (unix seconds).
	Created int64 `json:"created"`
	// LastAttached is the last attach time (unix seconds).
	// Zero means the session has never been attached.
	LastAttached int64 `json:"last_attached"`
	// Attached reports whether a client is currently attached.
	Attached bool `json:"attached"`
}

// Client describes one attached multiplexer client.
type Client struct {
	// Session is the session the client is attached to.
	Session string `json:"session"`
	// Activity is the client's last activity time (unix seconds).
	Activity int64 `json:"activity"`
}

// Pane describes one pane within a session during heuristic evaluation.
type Pane struct {
	// Target is the fully qualified pane identifier (e.g., "dev:0.0").
	Target string `json:"target"`
	// Session is the session name.
	Session string `json:"session"`
	// Window is the window index.
	Window int `json:"window"`
	// Pane is the pane index.
	Pane int `json:"pane"`
	// Active reports whether this is the session's active pane.
	Active bool `json:"active"`
	// Command is the pane's current foreground command (e.g., "bash", "vim").
	Command string `json:"command"`
}

// JobStatus is the filesystem-derived state of one job token.
type JobStatus struct {
	// Token identifies the job.
	Token string `json:"token"`
	// RC is the job's exit code, nil while the job is running or when the
	// rc file is missing or unparseable.
	RC *int `json:"rc"`
	// HasLog reports whether a log file exists in any candidate directory.
	HasLog bool `json:"has_log"`
	// RCPath is the resolved return-code file path.
	RCPath string `json:"rc_path"`
	// LogPath is the resolved log file path (may not exist yet).
	LogPath string `json:"log_path"`
}

// View holds operator convenience command strings for observing a job.
// These are templates for the human, never executed by agentd.
type View struct {
	Tail        string `json:"tail"`
	TmuxInside  string `json:"tmux_inside"`
	TmuxOutside string `json:"tmux_outside"`
}

// Descriptor is the result of launching a job.
type Descriptor struct {
	Token       string `json:"token"`
	Session     string `json:"session"`
	ExecSession string `json:"exec_session"`
	Target      string `json:"target"`
	LogPath     string `json:"log_path"`
	Attach      string `json:"attach"`
	View        View   `json:"view"`
}

// StopResult is the outcome of stopping a job.
type StopResult struct {
	Token   string `json:"token"`
	Cleaned bool   `json:"cleaned"`
	Error   string `json:"error,omitempty"`
}

// tokenRe matches the fixed job token format: a "job-" prefix, a 14-digit
// second-resolution timestamp, and a 6-character lowercase hex suffix.
var tokenRe = regexp.MustCompile(`^job-\d{14}-[0-9a-f]{6}$`)

// ValidToken reports whether s matches the job token format.
func ValidToken(s string) bool {
	return tokenRe.MatchString(s)
}

// TokenTime extracts the embedded timestamp from a token.
// Returns the zero time when the token is malformed.
func TokenTime(token string) time.Time {
	if !ValidToken(token) {
		return time.Time{}
	}
	ts, err := time.ParseInLocation("20060102150405", token[4:18], time.Local)
	if err != nil {
		return time.Time{}
	}
	return ts
}
