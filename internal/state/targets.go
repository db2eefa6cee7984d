// Package state manages agentd's on-disk state directory: the default
// target file, named target files, and job return-code files written by
// the external runner.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// defaultTargetFile holds the default notification target.
	defaultTargetFile = "agent_pane"
	// targetsSubdir holds one <key>.pane file per named target.
	targetsSubdir = "targets"
)

// Targets reads and writes persisted target files under the state
// directory. Writes happen only through explicit set operations; reads are
// best-effort and return ok=false for anything missing or empty.
type Targets struct {
	dir string
}

// NewTargets creates a target store rooted at the state directory.
func NewTargets(stateDir string) *Targets {
	return &Targets{dir: stateDir}
}

// Default returns the persisted default target, or ok=false when none is
// recorded.
func (t *Targets) Default() (string, bool) {
	return readTargetFile(filepath.Join(t.dir, defaultTargetFile))
}

// SetDefault persists the default target.
func (t *Targets) SetDefault(target string) error {
	return writeTargetFile(filepath.Join(t.dir, defaultTargetFile), target)
}

// Get returns the named target, or ok=false when the key is unknown.
func (t *Targets) Get(key string) (string, bool) {
	return readTargetFile(filepath.Join(t.dir, targetsSubdir, key+".pane"))
}

// Set persists a named target.
func (t *Targets) Set(key, target string) error {
	if key == "" {
		return fmt.Errorf("target key required")
	}
	return writeTargetFile(filepath.Join(t.dir, targetsSubdir, key+".pane"), target)
}

// List returns all persisted targets keyed by name. The default target,
// when present, appears under the key "default".
func (t *Targets) List() map[string]string {
	out := map[string]string{}
	if target, ok := t.Default(); ok {
		out["default"] = target
	}
	entries, err := os.ReadDir(filepath.Join(t.dir, targetsSubdir))
	if err != nil {
		return out
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".pane") {
			continue
		}
		key := strings.TrimSuffix(name, ".pane")
		if target, ok := t.Get(key); ok {
			out[key] = target
		}
	}
	return out
}

func readTargetFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	target := strings.TrimSpace(string(data))
	return target, target != ""
}

func writeTargetFile(path, target string) error {
	if target == "" {
		return fmt.Errorf("target required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(target+"\n"), 0o644)
}
