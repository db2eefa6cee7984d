package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentd/agentd/internal/model"
	"github.com/agentd/agentd/internal/state"
)

var flagTargetKey string

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Manage persisted notification targets",
	Long: `Manage the persisted default and named targets used by target resolution.

A saved target only wins resolution while its pane still exists; stale
targets are skipped, not errors.`,
}

var targetSetCmd = &cobra.Command{
	Use:   "set <target>",
	Short: "Persist a target pane",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		if _, err := model.ParseTarget(target); err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		m, err := getMultiplexer(cfg)
		if err != nil {
			return err
		}

		// Persisting a dead pane would silently poison resolution later;
		// reject it now instead.
		if !m.PaneExists(cmd.Context(), target) {
			return fmt.Errorf("pane not found: %s", target)
		}

		targets := state.NewTargets(cfg.StateDir)
		if flagTargetKey != "" {
			err = targets.Set(flagTargetKey, target)
		} else {
			err = targets.SetDefault(target)
		}
		if err != nil {
			return err
		}
		return printJSON(map[string]string{"target": target})
	},
}

var targetGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the default or a named target",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		targets := state.NewTargets(cfg.StateDir)

		var target string
		if flagTargetKey != "" {
			target, _ = targets.Get(flagTargetKey)
		} else {
			target, _ = targets.Default()
		}
		return printJSON(map[string]string{"target": target})
	},
}

var targetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all persisted targets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return printJSON(state.NewTargets(cfg.StateDir).List())
	},
}

func init() {
	targetCmd.PersistentFlags().StringVar(&flagTargetKey, "key", "", "named target key (default: the default target)")
	targetCmd.AddCommand(targetSetCmd)
	targetCmd.AddCommand(targetGetCmd)
	targetCmd.AddCommand(targetListCmd)
	rootCmd.AddCommand(targetCmd)
}
