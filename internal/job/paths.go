package job

import (
	"context"
	"os"
	"path/filepath"

	"github.com/agentd/agentd/internal/mux"
)

// logSubdir is the log directory the runner creates inside a job's
// working directory.
const logSubdir = ".agentd/logs"

// LogPaths resolves job log files against an ordered list of candidate
// directories. The order is fixed at construction, so resolution is
// deterministic for a given filesystem state.
type LogPaths struct {
	dirs []string
}

// NewLogPaths builds the candidate list: the working-directory-local log
// directory, the configured override (skipped when identical to the
// first), and the state-directory fallback.
func NewLogPaths(workDir, overrideDir, stateDir string) *LogPaths {
	local := filepath.Join(workDir, logSubdir)
	dirs := []string{local}
	if overrideDir != "" && overrideDir != local {
		dirs = append(dirs, overrideDir)
	}
	dirs = append(dirs, filepath.Join(stateDir, "logs"))
	return &LogPaths{dirs: dirs}
}

// Dirs returns the candidate directories in priority order.
func (l *LogPaths) Dirs() []string {
	return l.dirs
}

// FindExisting returns the path of the first candidate directory that
// contains <token>.log. When no candidate does, it returns the path the
// log would have in the first candidate directory — a prediction, not a
// guarantee of existence.
func (l *LogPaths) FindExisting(token string) string {
	name := token + ".log"
	for _, dir := range l.dirs {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(l.dirs[0], name)
}

// Exists reports whether any candidate directory contains <token>.log.
func (l *LogPaths) Exists(token string) bool {
	name := token + ".log"
	for _, dir := range l.dirs {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// PredictForLaunch predicts where the runner will write a job's log.
// The runner logs relative to the target pane's working directory, so that
// directory is preferred; when the pane cwd lookup fails the prediction
// falls back to the same candidate order as FindExisting.
func (l *LogPaths) PredictForLaunch(ctx context.Context, m mux.Multiplexer, target, token string) string {
	if cwd, err := m.PaneWorkingDir(ctx, target); err == nil {
		return filepath.Join(cwd, logSubdir, token+".log")
	}
	return l.FindExisting(token)
}
