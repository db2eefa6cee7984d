package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	telem "github.com/agentd/agentd/internal/otel"
)

var flagStopRemoveLog bool

var stopCmd = &cobra.Command{
	Use:   "stop <token>",
	Short: "Stop a job by token",
	Long: `Stop a running job by delegating to the external stopper script, which
kills the job window and reaps its process. Script failures are reported
in the result instead of aborting.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		token := args[0]

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

		m, err := getMultiplexer(cfg)
		if err != nil {
			return err
		}

		launcher := newLauncher(ctx, cfg, m)
		if tel != nil {
			launcher.Metrics = tel.Metrics
		}

		result := launcher.Stop(ctx, token, flagStopRemoveLog)
		if err := printJSON(result); err != nil {
			return err
		}
		if !result.Cleaned {
			return fmt.Errorf("stop %s failed", token)
		}
		return nil
	},
}

func init() {
	stopCmd.Flags().BoolVar(&flagStopRemoveLog, "remove-log", false, "also delete the job's log file")
	rootCmd.AddCommand(stopCmd)
}
