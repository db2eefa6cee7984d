package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/agentd/agentd/internal/model"
	"github.com/agentd/agentd/internal/mux"
	telem "github.com/agentd/agentd/internal/otel"
	"github.com/agentd/agentd/internal/resolve"
)

// Runner and stopper executable names looked up on PATH when no explicit
// path is configured.
const (
	runnerName  = "agentd-job-run"
	stopperName = "agentd-job-stop"
)

// Execution session modes: which session owns the window the runner
// creates for the job.
const (
	ExecModeSelf    = "self"     // same session as the resolved target
	ExecModeFixed   = "fixed"    // a constant configured name
	ExecModePerRepo = "per-repo" // derived from the target pane's cwd basename
)

// ErrRunnerNotFound means the external runner or stopper executable could
// not be located. This is a fatal configuration error, never retried.
var ErrRunnerNotFound = errors.New("runner executable not found")

// ErrInvalidTarget means a caller-specified explicit target does not exist
// in the multiplexer. Rejected before any process is spawned.
var ErrInvalidTarget = errors.New("target pane not found")

// Launcher builds a handoff descriptor and delegates execution to the
// external runner. It holds no job state: launch is a pure computation
// over current multiplexer and filesystem state followed by a detached
// spawn.
type Launcher struct {
	Mux  mux.Multiplexer
	Logs *LogPaths

	// Resolver supplies the target pane for each launch.
	Resolver *resolve.Resolver

	// ExecMode is one of the ExecMode* constants; ExecSession is the fixed
	// session name (and per-repo fallback); ExecPrefix prefixes per-repo
	// session names.
	ExecMode    string
	ExecSession string
	ExecPrefix  string

	// NotifyShellOnly reroutes the completion notification to a
	// shell-friendly pane in the target's session.
	NotifyShellOnly bool

	// Runner and Stopper override the PATH lookup of the external scripts.
	Runner  string
	Stopper string

	// Metrics records launches and stops; nil disables recording.
	Metrics *telem.Metrics

	// start spawns the handed-off runner process. Tests replace it to
	// capture the command instead of executing it; nil means detachedStart.
	start func(*exec.Cmd) error
	// lookPath locates executables; nil means exec.LookPath.
	lookPath func(string) (string, error)
}

// Launch resolves a target, generates a token, and hands the command to
// the external runner as a detached process. It returns as soon as the
// runner is started; execution and artifact writes happen out-of-process.
func (l *Launcher) Launch(ctx context.Context, command string, req resolve.Request) (model.Descriptor, error) {
	runner, err := l.findExecutable(l.Runner, runnerName)
	if err != nil {
		return model.Descriptor{}, err
	}

	token := NewToken()
	res := l.Resolver.Resolve(ctx, req)

	// An explicit target wins resolution unconditionally, but launching
	// into a malformed or dead pane is a caller error, caught before any
	// process is spawned.
	if req.Target != "" {
		if _, err := model.ParseTarget(req.Target); err != nil {
			return model.Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
		}
		if !l.Mux.PaneExists(ctx, req.Target) {
			return model.Descriptor{}, fmt.Errorf("%w: %s", ErrInvalidTarget, req.Target)
		}
	}

	execSession := l.execSession(ctx, res.Target)
	logPath := l.Logs.PredictForLaunch(ctx, l.Mux, res.Target, token)

	notify := res.Target
	if l.NotifyShellOnly {
		if pane := resolve.ShellFriendlyPane(ctx, l.Mux, model.SessionName(res.Target)); pane != "" {
			notify = pane
		}
	}

	cmd := exec.Command(runner, command)
	cmd.Env = append(os.Environ(),
		"JOB_TOKEN="+token,
		"JOB_TARGET_PANE="+res.Target,
		"JOB_EXEC_SESSION="+execSession,
		"JOB_EXEC_SESSION_MODE="+l.ExecMode,
		"JOB_NOTIFY_PANE="+notify,
	)
	if err := l.startDetached(cmd); err != nil {
		return model.Descriptor{}, fmt.Errorf("starting runner: %w", err)
	}
	l.Metrics.RecordLaunch(ctx, l.ExecMode, res.Source)

	return model.Descriptor{
		Token:       token,
		Session:     model.SessionName(res.Target),
		ExecSession: execSession,
		Target:      res.Target,
		LogPath:     logPath,
		Attach:      fmt.Sprintf("tmux attach -t %s", execSession),
		View: model.View{
			Tail:        fmt.Sprintf("tail -f %s", logPath),
			TmuxInside:  fmt.Sprintf("tmux select-window -t %s:%s", execSession, token),
			TmuxOutside: fmt.Sprintf("tmux attach -t %s \\; select-window -t %s:%s", execSession, execSession, token),
		},
	}, nil
}

// Stop delegates to the external stopper script. Script failures are
// reported in the result, never raised past this boundary.
func (l *Launcher) Stop(ctx context.Context, token string, removeLog bool) model.StopResult {
	result := model.StopResult{Token: token}

	stopper, err := l.findExecutable(l.Stopper, stopperName)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	out, err := exec.CommandContext(ctx, stopper, token).CombinedOutput()
	if err != nil {
		result.Error = strings.TrimSpace(fmt.Sprintf("%s: %s", err, out))
		l.Metrics.RecordStop(ctx, false)
		return result
	}
	result.Cleaned = true
	l.Metrics.RecordStop(ctx, true)

	if removeLog {
		name := token + ".log"
		for _, dir := range l.Logs.Dirs() {
			if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
				result.Error = fmt.Sprintf("stopped, but removing log failed: %v", err)
			}
		}
	}
	return result
}

// execSession picks the session that will own the job window.
func (l *Launcher) execSession(ctx context.Context, target string) string {
	switch l.ExecMode {
	case ExecModeFixed:
		if l.ExecSession != "" {
			return l.ExecSession
		}
		return model.SessionName(target)
	case ExecModePerRepo:
		if cwd, err := l.Mux.PaneWorkingDir(ctx, target); err == nil {
			if base := filepath.Base(cwd); base != "" && base != "." && base != string(filepath.Separator) {
				return l.ExecPrefix + base
			}
		}
		if l.ExecSession != "" {
			return l.ExecSession
		}
		return l.ExecPrefix + "jobs"
	default: // ExecModeSelf
		return model.SessionName(target)
	}
}

// findExecutable resolves an external script: an explicit configured path
// must exist, otherwise the well-known name is looked up on PATH.
func (l *Launcher) findExecutable(configured, name string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("%w: %s", ErrRunnerNotFound, configured)
		}
		return configured, nil
	}
	look := l.lookPath
	if look == nil {
		look = exec.LookPath
	}
	path, err := look(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s not on PATH", ErrRunnerNotFound, name)
	}
	return path, nil
}

// startDetached starts cmd fire-and-forget: new session, stdio discarded,
// process released so the job outlives this process without becoming a
// zombie child.
func (l *Launcher) startDetached(cmd *exec.Cmd) error {
	if l.start != nil {
		return l.start(cmd)
	}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
