package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pregen/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Ledger string
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Show runs recorded in the ledger",
		Long: `List the transform runs recorded in a ledger, oldest first, or show the
full report of one run.

The ledger path comes from --ledger, or from the configuration file when
the flag is not given.

Examples:
  pregen report --ledger .pregen/ledger.db
  pregen report --ledger .pregen/ledger.db 01928c7e-... --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "path to the SQLite ledger")

	return cmd
}

func runReport(opts *ReportOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	ledger := opts.Ledger
	if ledger == "" {
		cfg, err := opts.loadConfig()
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid configuration", err)
		}
		ledger = cfg.Ledger
	}
	if ledger == "" {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "no ledger given: use --ledger or set ledger in the configuration", nil)
	}
	// Open would create a fresh ledger; a report of nothing is more likely a
	// wrong path.
	if _, err := os.Stat(ledger); errors.Is(err, fs.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("ledger not found: %s", ledger), nil)
	}

	st, err := store.Open(ledger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to open ledger", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 0 {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to list runs", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(formatter.Writer, "No runs recorded.")
			return nil
		}
		tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tSTARTED\tINPUT\tGENERATED\tFAILURES\tCHANGED")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%t\n",
				r.ID, r.StartedAt.Format(time.RFC3339), r.InputDir, r.Generated, r.Failures, r.Changed)
		}
		return tw.Flush()
	}

	run, err := st.ReadRun(ctx, args[0])
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", args[0]), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to read run", err)
	}
	if formatter.Format == "json" {
		return formatter.Success(run)
	}
	fmt.Fprintf(formatter.Writer, "Input %s, output %s (pregen %s, format %d)\n",
		run.InputDir, run.OutputDir, run.ToolVersion, run.FormatVersion)
	printReport(formatter.Writer, run.Report)
	return nil
}
