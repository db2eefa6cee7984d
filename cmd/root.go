package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentd/agentd/internal/config"
	"github.com/agentd/agentd/internal/job"
	"github.com/agentd/agentd/internal/mux"
	"github.com/agentd/agentd/internal/resolve"
	"github.com/agentd/agentd/internal/state"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

var (
	// Global flags.
	flagMux      string
	flagStateDir string
)

var rootCmd = &cobra.Command{
	Use:   "agentd",
	Short: "Launch and observe long-running shell commands in tmux",
	Long: `agentd launches long-running shell commands inside a terminal multiplexer
without blocking, and lets you observe their output and exit status later.

Execution itself is delegated to an external runner script: agentd decides
where the job runs (which session, window, and pane), generates the job
token that names its artifacts, and predicts where to find them afterward.
Completion notifications are routed back to the resolved target pane.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMux, "mux", envOrDefault("AGENTD_MUX", ""), "terminal multiplexer: tmux (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&flagStateDir, "state-dir", "", "state directory holding rc and target files (default: ~/.agentd)")
}

// loadConfig loads the layered config and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if flagStateDir != "" {
		cfg.StateDir = flagStateDir
	}
	return cfg, nil
}

// getMultiplexer returns the configured or auto-detected multiplexer.
func getMultiplexer(cfg *config.Config) (mux.Multiplexer, error) {
	m, err := muxFromFlag()
	if err != nil {
		return nil, err
	}
	if t, ok := m.(*mux.Tmux); ok {
		t.Timeout = cfg.CommandTimeoutDuration
	}
	return m, nil
}

func muxFromFlag() (mux.Multiplexer, error) {
	if flagMux != "" {
		return mux.FromName(flagMux)
	}
	return mux.Detect()
}

// newLogPaths builds the candidate log directory list for this invocation.
func newLogPaths(cfg *config.Config) *job.LogPaths {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return job.NewLogPaths(wd, cfg.LogDir, cfg.StateDir)
}

// newStatusStore builds the filesystem-backed job status store.
func newStatusStore(cfg *config.Config) *job.StatusStore {
	return job.NewStatusStore(cfg.StateDir, newLogPaths(cfg))
}

// newLauncher wires a launcher for the current invocation. The self pane
// and saved default target are resolved once here and passed down as plain
// values; resolution re-checks validity on use, it never caches.
func newLauncher(ctx context.Context, cfg *config.Config, m mux.Multiplexer) *job.Launcher {
	targets := state.NewTargets(cfg.StateDir)
	saved, _ := targets.Default()
	self, _ := m.SelfPane(ctx)

	return &job.Launcher{
		Mux:  m,
		Logs: newLogPaths(cfg),
		Resolver: &resolve.Resolver{
			Mux:     m,
			Saved:   saved,
			Self:    self,
			Session: cfg.Session,
			Window:  cfg.Window,
		},
		ExecMode:        cfg.ExecSessionMode,
		ExecSession:     cfg.ExecSession,
		ExecPrefix:      cfg.ExecSessionPrefix,
		NotifyShellOnly: cfg.NotifyShellOnly,
		Runner:          cfg.Runner,
		Stopper:         cfg.Stopper,
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
