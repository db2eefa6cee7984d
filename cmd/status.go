package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentd/agentd/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status [token]",
	Short: "Show job status by token, or all known jobs",
	Long: `Read a job's exit status from its artifacts.

With a token, prints that job's status. Without one, prints a map of every
known token — the union of return-code files in the state directory and
log files across all candidate log directories.

A null rc means the job is still running, or its return-code file is
missing or unreadable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := newStatusStore(cfg)

		if len(args) == 1 {
			return printJSON(store.Status(args[0]))
		}

		all := map[string]model.JobStatus{}
		for _, token := range store.List() {
			all[token] = store.Status(token)
		}
		return printJSON(all)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
