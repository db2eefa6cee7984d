package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	telem "github.com/agentd/agentd/internal/otel"
	"github.com/agentd/agentd/internal/resolve"
	"github.com/agentd/agentd/internal/state"
)

var (
	flagRunTarget  string
	flagRunSession string
	flagRunWindow  string
	flagRunPane    int
	flagRunKey     string
)

var runCmd = &cobra.Command{
	Use:   "run <command...>",
	Short: "Launch a long-running command as a detached tmux job",
	Long: `Launch a shell command under the external job runner and return immediately.

The command runs in a new window named after the generated job token. Where
that window lives — and which pane gets the completion notification — is
resolved from, in priority order: --target, --session/--window/--pane, the
saved default target, the most recently active session, the pane agentd
itself runs in, and finally the configured static fallback.

The printed descriptor contains the token plus ready-to-paste attach and
tail commands. Poll progress with 'agentd status <token>' and read output
with 'agentd logs <token>'.

A single argument is passed to the runner verbatim, so shell syntax works:
agentd run 'make test 2>&1 | tee out'. Multiple arguments are treated as
one argv and quoted word by word, so agentd run grep "a b" file searches
for "a b".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Wire build version into OTEL service metadata.
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

		var span trace.Span
		if tel != nil {
			launcher.Metrics = tel.Metrics
			ctx, span = tel.Tracer.Start(ctx, "launch")
			defer span.End()
		}

		desc, err := launcher.Launch(ctx, commandLine(args), resolve.Request{
			Target:  flagRunTarget,
			Session: flagRunSession,
			Window:  flagRunWindow,
			Pane:    flagRunPane,
		})
		if err != nil {
			return err
		}

		if span != nil {
			span.SetAttributes(
				attribute.String("job.token", desc.Token),
				attribute.String("job.target", desc.Target),
				attribute.String("job.exec_session", desc.ExecSession),
			)
		}

		// Remember the resolved target under a named key for later runs.
		if flagRunKey != "" {
			if err := state.NewTargets(cfg.StateDir).Set(flagRunKey, desc.Target); err != nil {
				fmt.Fprintf(os.Stderr, "warning: saving target key %q: %v\n", flagRunKey, err)
			}
		}

		return printJSON(desc)
	},
}

// commandLine renders argv as the single command string the runner's shell
// evaluates. One argument is a pre-formed shell command and passes
// verbatim; several arguments are argv words, quoted so their boundaries
// survive re-parsing.
func commandLine(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}

// shellQuote single-quotes an argument when it contains anything a POSIX
// shell would reinterpret.
func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'\\$&|;<>()*?[]#~`{}!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func init() {
	runCmd.Flags().StringVar(&flagRunTarget, "target", "", "explicit target pane (session:window.pane)")
	runCmd.Flags().StringVar(&flagRunSession, "session", "", "explicit target session")
	runCmd.Flags().StringVar(&flagRunWindow, "window", "", "target window name (with --session; default: configured window)")
	runCmd.Flags().IntVar(&flagRunPane, "pane", 0, "target pane index (with --session)")
	runCmd.Flags().StringVar(&flagRunKey, "key", "", "save the resolved target under this named key")
	rootCmd.AddCommand(runCmd)
}
