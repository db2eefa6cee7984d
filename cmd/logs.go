package cmd

import (
	"fmt"
	"io"
	stdlog "log"
	"os"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

var (
	flagLogsTail   int
	flagLogsFollow bool
)

var logsCmd = &cobra.Command{
	Use:   "logs <token>",
	Short: "Print a job's captured output",
	Long: `Print the captured stdout+stderr of a job.

The log file is searched across the candidate log directories in priority
order. Use --tail to limit output to the last N lines, and --follow to
stream new output as the job writes it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := newStatusStore(cfg)

		if !flagLogsFollow {
			text, err := store.ReadLog(token, flagLogsTail)
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, text)
			return nil
		}

		// Follow mode: keep reading as the runner appends. ReOpen handles
		// the runner creating the file after we start watching.
		path := newLogPaths(cfg).FindExisting(token)
		t, err := tail.TailFile(path, tail.Config{
			Follow:    true,
			ReOpen:    true,
			MustExist: false,
			Logger:    stdlog.New(io.Discard, "", 0),
		})
		if err != nil {
			return fmt.Errorf("following %s: %w", path, err)
		}
		defer t.Cleanup()

		for {
			select {
			case <-cmd.Context().Done():
				_ = t.Stop()
				return nil
			case line, ok := <-t.Lines:
				if !ok {
					return nil
				}
				if line.Err != nil {
					return line.Err
				}
				fmt.Fprintln(os.Stdout, line.Text)
			}
		}
	},
}

func init() {
	logsCmd.Flags().IntVar(&flagLogsTail, "tail", 0, "only print the last N lines")
	logsCmd.Flags().BoolVar(&flagLogsFollow, "follow", false, "stream new output until interrupted")
	rootCmd.AddCommand(logsCmd)
}
