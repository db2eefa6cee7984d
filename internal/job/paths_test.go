package job

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogPaths_CandidateOrder(t *testing.T) {
	lp := NewLogPaths("/work", "/override", "/state")
	want := []string{
		filepath.Join("/work", logSubdir),
		"/override",
		filepath.Join("/state", "logs"),
	}
	got := lp.Dirs()
	if len(got) != len(want) {
		t.Fatalf("Dirs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Dirs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewLogPaths_SkipsOverrideIdenticalToLocal(t *testing.T) {
	local := filepath.Join("/work", logSubdir)
	lp := NewLogPaths("/work", local, "/state")
	if len(lp.Dirs()) != 2 {
		t.Errorf("Dirs() = %v, want override collapsed into local", lp.Dirs())
	}
}

func TestFindExisting_FirstHitWins(t *testing.T) {
	workDir := t.TempDir()
	overrideDir := t.TempDir()
	stateDir := t.TempDir()
	lp := NewLogPaths(workDir, overrideDir, stateDir)
	token := "job-20260826120000-cccccc"

	// Not on disk anywhere: predicted under the first candidate.
	want := filepath.Join(workDir, logSubdir, token+".log")
	if got := lp.FindExisting(token); got != want {
		t.Errorf("FindExisting (missing) = %q, want %q", got, want)
	}
	if lp.Exists(token) {
		t.Error("Exists = true for missing log")
	}

	// Present in the second candidate only.
	overridePath := filepath.Join(overrideDir, token+".log")
	if err := os.WriteFile(overridePath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := lp.FindExisting(token); got != overridePath {
		t.Errorf("FindExisting = %q, want %q", got, overridePath)
	}

	// Present in the first too: the first candidate shadows the second.
	localDir := filepath.Join(workDir, logSubdir)
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		t.Fatal(err)
	}
	localPath := filepath.Join(localDir, token+".log")
	if err := os.WriteFile(localPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := lp.FindExisting(token); got != localPath {
		t.Errorf("FindExisting = %q, want %q", got, localPath)
	}
}

func TestFindExisting_Deterministic(t *testing.T) {
	lp := NewLogPaths(t.TempDir(), "", t.TempDir())
	token := "job-20260826120000-dddddd"
	first := lp.FindExisting(token)
	for i := 0; i < 5; i++ {
		if got := lp.FindExisting(token); got != first {
			t.Fatalf("FindExisting not deterministic: %q vs %q", got, first)
		}
	}
}

func TestPredictForLaunch(t *testing.T) {
	lp := NewLogPaths(t.TempDir(), "", t.TempDir())
	token := "job-20260826120000-eeeeee"

	m := &fakeMux{cwds: map[string]string{"dev:0.0": "/repo/widget"}}
	want := filepath.Join("/repo/widget", logSubdir, token+".log")
	if got := lp.PredictForLaunch(context.Background(), m, "dev:0.0", token); got != want {
		t.Errorf("PredictForLaunch = %q, want %q", got, want)
	}

	// Pane cwd lookup fails: same fallback as FindExisting.
	if got := lp.PredictForLaunch(context.Background(), m, "gone:0.0", token); got != lp.FindExisting(token) {
		t.Errorf("PredictForLaunch fallback = %q, want %q", got, lp.FindExisting(token))
	}
}
