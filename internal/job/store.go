package job

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/agentd/agentd/internal/model"
)

// StatusStore derives job state from the filesystem on every call. There
// is no in-process job object: the runner writes <token>.rc into the state
// directory and <token>.log into one of the candidate log directories, and
// this store only reads them.
type StatusStore struct {
	stateDir string
	logs     *LogPaths
}

// NewStatusStore creates a status store over the state directory and the
// candidate log directories.
func NewStatusStore(stateDir string, logs *LogPaths) *StatusStore {
	return &StatusStore{stateDir: stateDir, logs: logs}
}

// RCPath returns the return-code file path for a token.
func (s *StatusStore) RCPath(token string) string {
	return filepath.Join(s.stateDir, token+".rc")
}

// Status reads a token's current state. A missing or unparseable rc file
// means "exit code unknown", never an error.
func (s *StatusStore) Status(token string) model.JobStatus {
	st := model.JobStatus{
		Token:   token,
		RCPath:  s.RCPath(token),
		LogPath: s.logs.FindExisting(token),
		HasLog:  s.logs.Exists(token),
	}
	data, err := os.ReadFile(st.RCPath)
	if err != nil {
		return st
	}
	rc, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return st
	}
	st.RC = &rc
	return st
}

// List returns every known token: the deduplicated union of rc-file stems
// in the state directory and log-file stems across all candidate log
// directories, sorted lexicographically. The fixed-width timestamp prefix
// makes that order chronological as well.
func (s *StatusStore) List() []string {
	seen := map[string]bool{}
	collect := func(dir, suffix string) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, suffix) {
				continue
			}
			seen[strings.TrimSuffix(name, suffix)] = true
		}
	}
	collect(s.stateDir, ".rc")
	for _, dir := range s.logs.Dirs() {
		collect(dir, ".log")
	}

	tokens := make([]string, 0, len(seen))
	for token := range seen {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// ReadLog returns a job's captured output. tail > 0 limits the result to
// the last tail lines.
func (s *StatusStore) ReadLog(token string, tail int) (string, error) {
	path := s.logs.FindExisting(token)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("no log for %s: %w", token, err)
	}
	text := string(data)
	if tail > 0 {
		lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
		if len(lines) > tail {
			lines = lines[len(lines)-tail:]
		}
		text = strings.Join(lines, "\n") + "\n"
	}
	return text, nil
}
