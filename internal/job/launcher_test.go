package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentd/agentd/internal/model"
	"github.com/agentd/agentd/internal/resolve"
)

// fakeMux implements mux.Multiplexer for testing.
type fakeMux struct {
	sessions []model.Session
	clients  []model.Client
	panes    map[string][]model.Pane
	exists   map[string]bool
	cwds     map[string]string
}

func (f *fakeMux) Name() string { return "fake" }

func (f *fakeMux) ListSessions(context.Context) ([]model.Session, error) {
	if f.sessions == nil {
		return nil, errors.New("unavailable")
	}
	return f.sessions, nil
}

func (f *fakeMux) ListClients(context.Context) ([]model.Client, error) {
	if f.clients == nil {
		return nil, errors.New("unavailable")
	}
	return f.clients, nil
}

func (f *fakeMux) ListPanes(_ context.Context, session string) ([]model.Pane, error) {
	panes, ok := f.panes[session]
	if !ok {
		return nil, fmt.Errorf("no such session %q", session)
	}
	return panes, nil
}

func (f *fakeMux) PaneExists(_ context.Context, target string) bool {
	return f.exists[target]
}

func (f *fakeMux) PaneWorkingDir(_ context.Context, target string) (string, error) {
	if cwd, ok := f.cwds[target]; ok {
		return cwd, nil
	}
	return "", fmt.Errorf("no cwd for %q", target)
}

func (f *fakeMux) SelfPane(context.Context) (string, error) {
	return "", errors.New("not inside multiplexer")
}

// newTestLauncher builds a launcher whose runner spawn is captured instead
// of executed and whose runner lookup always succeeds.
func newTestLauncher(t *testing.T, m *fakeMux) (*Launcher, *exec.Cmd) {
	t.Helper()
	captured := &exec.Cmd{}
	l := &Launcher{
		Mux:  m,
		Logs: NewLogPaths(t.TempDir(), "", t.TempDir()),
		Resolver: &resolve.Resolver{
			Mux:     m,
			Session: "agentd",
			Window:  "cli",
		},
		ExecMode: ExecModeSelf,
		start: func(cmd *exec.Cmd) error {
			*captured = *cmd
			return nil
		},
		lookPath: func(name string) (string, error) {
			return "/usr/local/bin/" + name, nil
		},
	}
	return l, captured
}

func handoffEnv(cmd *exec.Cmd, key string) string {
	prefix := key + "="
	for _, kv := range cmd.Env {
		if strings.HasPrefix(kv, prefix) {
			return strings.TrimPrefix(kv, prefix)
		}
	}
	return ""
}

func TestLaunch_EndToEndWithHeuristicTarget(t *testing.T) {
	// No explicit target, nothing saved: the descriptor must land on the
	// active pane of the session owning the most recently active client.
	m := &fakeMux{
		clients: []model.Client{{Session: "dev", Activity: 99}},
		panes: map[string][]model.Pane{
			"dev": {
				{Target: "dev:0.0", Session: "dev", Active: false, Command: "vim"},
				{Target: "dev:0.1", Session: "dev", Pane: 1, Active: true, Command: "bash"},
			},
		},
	}
	l, captured := newTestLauncher(t, m)

	desc, err := l.Launch(context.Background(), "make test", resolve.Request{})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	if desc.Target != "dev:0.1" {
		t.Errorf("Target = %q, want %q", desc.Target, "dev:0.1")
	}
	if desc.Session != "dev" || desc.ExecSession != "dev" {
		t.Errorf("Session/ExecSession = %q/%q, want dev/dev", desc.Session, desc.ExecSession)
	}
	if !model.ValidToken(desc.Token) {
		t.Errorf("Token = %q, not a valid token", desc.Token)
	}
	if desc.Attach != "tmux attach -t dev" {
		t.Errorf("Attach = %q", desc.Attach)
	}
	if !strings.Contains(desc.View.Tail, desc.LogPath) {
		t.Errorf("View.Tail = %q does not reference log path %q", desc.View.Tail, desc.LogPath)
	}

	// Handoff contract with the runner.
	if len(captured.Args) != 2 || captured.Args[1] != "make test" {
		t.Errorf("runner argv = %v, want [runner, make test]", captured.Args)
	}
	if got := handoffEnv(captured, "JOB_TOKEN"); got != desc.Token {
		t.Errorf("JOB_TOKEN = %q, want %q", got, desc.Token)
	}
	if got := handoffEnv(captured, "JOB_TARGET_PANE"); got != "dev:0.1" {
		t.Errorf("JOB_TARGET_PANE = %q, want dev:0.1", got)
	}
	if got := handoffEnv(captured, "JOB_EXEC_SESSION"); got != "dev" {
		t.Errorf("JOB_EXEC_SESSION = %q, want dev", got)
	}
	if got := handoffEnv(captured, "JOB_NOTIFY_PANE"); got != "dev:0.1" {
		t.Errorf("JOB_NOTIFY_PANE = %q, want dev:0.1", got)
	}
}

func TestLaunch_InvalidExplicitTargetFailsBeforeSpawn(t *testing.T) {
	m := &fakeMux{exists: map[string]bool{}}
	l, _ := newTestLauncher(t, m)

	started := false
	l.start = func(*exec.Cmd) error {
		started = true
		return nil
	}

	_, err := l.Launch(context.Background(), "true", resolve.Request{Target: "ghost:0.0"})
	if !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("Launch error = %v, want ErrInvalidTarget", err)
	}
	if started {
		t.Error("runner was spawned despite invalid explicit target")
	}
}

func TestLaunch_MalformedExplicitTargetFailsBeforeSpawn(t *testing.T) {
	// A target without the window.pane suffix is rejected up front, even
	// when the multiplexer would happen to accept the string.
	m := &fakeMux{exists: map[string]bool{"not-a-target": true}}
	l, _ := newTestLauncher(t, m)

	started := false
	l.start = func(*exec.Cmd) error {
		started = true
		return nil
	}

	_, err := l.Launch(context.Background(), "true", resolve.Request{Target: "not-a-target"})
	if !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("Launch error = %v, want ErrInvalidTarget", err)
	}
	if started {
		t.Error("runner was spawned despite malformed explicit target")
	}
}

func TestLaunch_RunnerMissingIsFatal(t *testing.T) {
	l, _ := newTestLauncher(t, &fakeMux{exists: map[string]bool{"dev:0.0": true}})
	l.lookPath = func(string) (string, error) {
		return "", exec.ErrNotFound
	}

	_, err := l.Launch(context.Background(), "true", resolve.Request{Target: "dev:0.0"})
	if !errors.Is(err, ErrRunnerNotFound) {
		t.Fatalf("Launch error = %v, want ErrRunnerNotFound", err)
	}
}

func TestLaunch_ExecSessionModes(t *testing.T) {
	m := &fakeMux{
		exists: map[string]bool{"dev:0.0": true},
		cwds:   map[string]string{"dev:0.0": "/home/u/src/widget"},
	}

	tests := []struct {
		name    string
		mode    string
		fixed   string
		prefix  string
		cwdless bool
		want    string
	}{
		{name: "self", mode: ExecModeSelf, want: "dev"},
		{name: "fixed", mode: ExecModeFixed, fixed: "builds", want: "builds"},
		{name: "per-repo", mode: ExecModePerRepo, prefix: "agentd-", want: "agentd-widget"},
		{name: "per-repo cwd lookup fails", mode: ExecModePerRepo, prefix: "agentd-", cwdless: true, want: "agentd-jobs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, captured := newTestLauncher(t, m)
			l.ExecMode = tt.mode
			l.ExecSession = tt.fixed
			l.ExecPrefix = tt.prefix
			if tt.cwdless {
				saved := m.cwds
				m.cwds = nil
				defer func() { m.cwds = saved }()
			}

			desc, err := l.Launch(context.Background(), "true", resolve.Request{Target: "dev:0.0"})
			if err != nil {
				t.Fatalf("Launch: %v", err)
			}
			if desc.ExecSession != tt.want {
				t.Errorf("ExecSession = %q, want %q", desc.ExecSession, tt.want)
			}
			if got := handoffEnv(captured, "JOB_EXEC_SESSION_MODE"); got != tt.mode {
				t.Errorf("JOB_EXEC_SESSION_MODE = %q, want %q", got, tt.mode)
			}
		})
	}
}

func TestLaunch_NotifyShellOnlyReroutes(t *testing.T) {
	m := &fakeMux{
		exists: map[string]bool{"dev:0.0": true},
		panes: map[string][]model.Pane{
			"dev": {
				{Target: "dev:0.0", Session: "dev", Active: true, Command: "vim"},
				{Target: "dev:0.1", Session: "dev", Pane: 1, Command: "zsh"},
			},
		},
	}
	l, captured := newTestLauncher(t, m)
	l.NotifyShellOnly = true

	desc, err := l.Launch(context.Background(), "true", resolve.Request{Target: "dev:0.0"})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	// The job targets the vim pane, but the notification goes to the shell.
	if desc.Target != "dev:0.0" {
		t.Errorf("Target = %q, want dev:0.0", desc.Target)
	}
	if got := handoffEnv(captured, "JOB_NOTIFY_PANE"); got != "dev:0.1" {
		t.Errorf("JOB_NOTIFY_PANE = %q, want dev:0.1", got)
	}
}

func TestLaunch_PredictsLogPathFromPaneCwd(t *testing.T) {
	m := &fakeMux{
		exists: map[string]bool{"dev:0.0": true},
		cwds:   map[string]string{"dev:0.0": "/home/u/src/widget"},
	}
	l, _ := newTestLauncher(t, m)

	desc, err := l.Launch(context.Background(), "true", resolve.Request{Target: "dev:0.0"})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	want := filepath.Join("/home/u/src/widget", ".agentd/logs", desc.Token+".log")
	if desc.LogPath != want {
		t.Errorf("LogPath = %q, want %q", desc.LogPath, want)
	}
}

// writeScript drops an executable shell script into dir and returns its path.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStop_ReportsScriptOutcome(t *testing.T) {
	dir := t.TempDir()
	l, _ := newTestLauncher(t, &fakeMux{})

	l.Stopper = writeScript(t, dir, "ok-stop", "exit 0")
	result := l.Stop(context.Background(), "job-20260826120000-aaaaaa", false)
	if !result.Cleaned || result.Error != "" {
		t.Errorf("Stop (success) = %+v, want cleaned with no error", result)
	}

	l.Stopper = writeScript(t, dir, "bad-stop", "echo no such window >&2; exit 1")
	result = l.Stop(context.Background(), "job-20260826120000-aaaaaa", false)
	if result.Cleaned {
		t.Errorf("Stop (failure) reported cleaned: %+v", result)
	}
	if !strings.Contains(result.Error, "no such window") {
		t.Errorf("Stop error = %q, missing script diagnostics", result.Error)
	}
}

func TestStop_StopperMissingReportedNotRaised(t *testing.T) {
	l, _ := newTestLauncher(t, &fakeMux{})
	l.Stopper = filepath.Join(t.TempDir(), "does-not-exist")

	result := l.Stop(context.Background(), "job-20260826120000-aaaaaa", false)
	if result.Cleaned || result.Error == "" {
		t.Errorf("Stop = %+v, want uncleaned with error", result)
	}
}

func TestStop_RemoveLogDeletesArtifact(t *testing.T) {
	dir := t.TempDir()
	stateDir := t.TempDir()
	l, _ := newTestLauncher(t, &fakeMux{})
	l.Logs = NewLogPaths(dir, "", stateDir)
	l.Stopper = writeScript(t, dir, "ok-stop", "exit 0")

	token := "job-20260826120000-bbbbbb"
	logDir := filepath.Join(dir, ".agentd/logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(logDir, token+".log")
	if err := os.WriteFile(logPath, []byte("output\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result := l.Stop(context.Background(), token, true)
	if !result.Cleaned {
		t.Fatalf("Stop = %+v, want cleaned", result)
	}
	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Errorf("log file still present after --remove-log")
	}
}
