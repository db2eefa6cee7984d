package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/agentd/agentd/internal/job"
	"github.com/agentd/agentd/internal/model"
)

var flagWaitTimeout time.Duration

// waitPollInterval is the fallback poll cadence; fsnotify misses events on
// some filesystems (NFS, 9p), so the rc file is also re-checked on a timer.
const waitPollInterval = 2 * time.Second

var waitCmd = &cobra.Command{
	Use:   "wait <token>",
	Short: "Block until a job finishes",
	Long: `Wait for a job's return-code file to appear, then print the job's status
and exit with the job's own exit code.

Completion is detected by watching the state directory for the <token>.rc
file the external runner writes, backed by a periodic re-check.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := args[0]
		if !model.ValidToken(token) {
			return fmt.Errorf("malformed token %q", token)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := newStatusStore(cfg)

		// The runner may not have created the state directory yet; it must
		// exist before fsnotify can watch it.
		if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
			return fmt.Errorf("state dir: %w", err)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(cfg.StateDir); err != nil {
			return fmt.Errorf("watch %s: %w", cfg.StateDir, err)
		}

		// Check after the watch is in place, not before: an rc file that
		// lands in between would otherwise be missed entirely.
		if st := store.Status(token); st.RC != nil {
			return finishWait(store, token)
		}

		rcName := token + ".rc"
		ticker := time.NewTicker(waitPollInterval)
		defer ticker.Stop()

		var timeout <-chan time.Time
		if flagWaitTimeout > 0 {
			timer := time.NewTimer(flagWaitTimeout)
			defer timer.Stop()
			timeout = timer.C
		}

		for {
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-timeout:
				return fmt.Errorf("timed out after %s waiting for %s", flagWaitTimeout, token)
			case event, ok := <-watcher.Events:
				if !ok {
					return fmt.Errorf("watcher closed")
				}
				if filepath.Base(event.Name) != rcName {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if st := store.Status(token); st.RC != nil {
					return finishWait(store, token)
				}
			case err, ok := <-watcher.Errors:
				if ok && err != nil {
					fmt.Fprintf(os.Stderr, "warning: watch error: %v\n", err)
				}
			case <-ticker.C:
				if st := store.Status(token); st.RC != nil {
					return finishWait(store, token)
				}
			}
		}
	},
}

// finishWait prints the final status and exits with the job's return code.
func finishWait(store *job.StatusStore, token string) error {
	st := store.Status(token)
	if err := printJSON(st); err != nil {
		return err
	}
	if st.RC != nil && *st.RC != 0 {
		os.Exit(*st.RC)
	}
	return nil
}

func init() {
	waitCmd.Flags().DurationVar(&flagWaitTimeout, "timeout", 0, "give up after this duration (0 = wait forever)")
	rootCmd.AddCommand(waitCmd)
}
