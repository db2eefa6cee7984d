package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	telem "github.com/agentd/agentd/internal/otel"
	"github.com/agentd/agentd/internal/watch"
)

var flagJobsRefresh time.Duration

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Interactive TUI to monitor known jobs",
	Long: `Launch an interactive terminal UI listing every known job with its exit
state, refreshed periodically from the job artifacts on disk. Select a job
to preview the tail of its log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		telem.Version = Version
		tel, err := telem.Init(ctx, telem.OTELConfig{
			Endpoint: cfg.OTELEndpoint,
			Headers:  cfg.OTELHeaders,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: otel init failed: %v\n", err)
		}
		if tel != nil {
			defer tel.Shutdown(ctx)
		}

		tui := &watch.TUI{
			Store:           newStatusStore(cfg),
			RefreshInterval: flagJobsRefresh,
		}
		if tel != nil {
			tui.Metrics = tel.Metrics
		}
		return tui.Run(ctx)
	},
}

func init() {
	jobsCmd.Flags().DurationVar(&flagJobsRefresh, "refresh", 2*time.Second, "status refresh interval (0 disables auto-refresh)")
	rootCmd.AddCommand(jobsCmd)
}
