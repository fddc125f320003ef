package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/store"
	"github.com/roach88/pregen/internal/transform"
)

// TransformOptions holds flags for the transform command.
type TransformOptions struct {
	*RootOptions
	Output       string
	Ledger       string
	Workers      int
	FactoryOwner string
	EntryMethod  string

	// RunIDs overrides the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs transform.RunIDGenerator

	// Clock overrides time.Now for report timestamps (for testing).
	Clock func() time.Time
}

// NewTransformCommand creates the transform command.
func NewTransformCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransformOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transform <in-dir>",
		Short: "Pregenerate factory call sites in a record tree",
		Long: `Read every file under <in-dir> as one record set, replace each recognized
factory call site with a direct call to a generated record, and write the
result to the output directory. The first directory level under <in-dir>
names the module of each entry.

Call sites that cannot be pregenerated are reported and left as they were.
A group attribute conflict aborts the run and nothing is written.

Examples:
  pregen transform ./records -o ./out
  pregen transform ./records -o ./out --ledger .pregen/ledger.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (required, must be empty or absent)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "record the run in this SQLite ledger")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "worker goroutines per pass")
	cmd.Flags().StringVar(&opts.FactoryOwner, "factory-owner", "", "factory type whose bootstrap methods mark call sites")
	cmd.Flags().StringVar(&opts.EntryMethod, "entry-method", "", "static operation name on generated records")

	return cmd
}

func runTransform(opts *TransformOptions, inDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid configuration", err)
	}
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if flags.Changed("factory-owner") {
		cfg.FactoryOwner = opts.FactoryOwner
	}
	if flags.Changed("entry-method") {
		cfg.EntryMethod = opts.EntryMethod
	}
	if flags.Changed("ledger") {
		cfg.Ledger = opts.Ledger
	}
	if err := cfg.Validate(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid configuration", err)
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Level(), opts.Verbose)

	if err := CheckOutputDir(opts.Output); err != nil {
		if errors.Is(err, ErrOutputNotEmpty) {
			return formatter.Fail(ExitCommandError, ErrCodeOutputExists, err.Error(), nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeScanError, "checking output directory", err)
	}

	in, err := ReadTree(inDir)
	if errors.Is(err, fs.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("input directory not found: %s", inDir), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScanError, "reading input tree", err)
	}
	formatter.VerboseLog("Read %d entries from %s", in.Len(), inDir)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	topts := []transform.Option{transform.WithLogger(logger)}
	if opts.RunIDs != nil {
		topts = append(topts, transform.WithRunIDGenerator(opts.RunIDs))
	}
	if opts.Clock != nil {
		topts = append(topts, transform.WithClock(opts.Clock))
	}
	out, report, err := transform.New(cfg.Transform(), topts...).Transform(ctx, in)
	if err != nil {
		return formatter.Fail(ExitFailure, transformErrorCode(err), "transform failed", err)
	}

	if err := WriteTree(opts.Output, out); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "writing output tree", err)
	}
	formatter.VerboseLog("Wrote %d entries to %s", out.Len(), opts.Output)

	if cfg.Ledger != "" {
		if err := recordRun(ctx, cfg.Ledger, inDir, opts.Output, report); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeLedger, "recording run", err)
		}
		formatter.VerboseLog("Recorded run %s in %s", report.RunID, cfg.Ledger)
	}

	if formatter.Format == "json" {
		return formatter.Success(report)
	}
	printReport(formatter.Writer, report)
	return nil
}

func recordRun(ctx context.Context, ledger, inDir, outDir string, report *transform.Report) error {
	st, err := store.Open(ledger)
	if err != nil {
		return err
	}
	defer st.Close()

	_, err = st.WriteRun(ctx, store.Run{
		RunMeta: store.RunMeta{
			InputDir:      inDir,
			OutputDir:     outDir,
			ToolVersion:   ir.ToolVersion,
			FormatVersion: ir.FormatVersion,
		},
		Report: report,
	})
	return err
}

// transformErrorCode maps a transform failure to its CLI error code.
func transformErrorCode(err error) string {
	var te *transform.TransformError
	if !errors.As(err, &te) {
		return ErrCodeGeneric
	}
	switch te.Code {
	case transform.ErrCodeGroupConflict:
		return ErrCodeGroupConflict
	case transform.ErrCodeStagingMisuse:
		return ErrCodeStagingMisuse
	case transform.ErrCodeMalformedRecord:
		return ErrCodeMalformedInput
	case transform.ErrCodeEmitFailed:
		return ErrCodeEmitFailed
	case transform.ErrCodeCanceled:
		return ErrCodeCanceled
	default:
		return ErrCodeGeneric
	}
}

// printReport writes the human-readable run summary.
func printReport(w io.Writer, r *transform.Report) {
	fmt.Fprintf(w, "Run %s: %d entries in, %d entries out\n", r.RunID, r.InputEntries, r.OutputEntries)
	if !r.Changed() {
		fmt.Fprintln(w, "No call sites rewritten; output is identical to input.")
	}

	if len(r.Generated) > 0 {
		fmt.Fprintf(w, "\nGenerated %d record(s):\n", len(r.Generated))
		for _, g := range r.Generated {
			fmt.Fprintf(w, "  %s  %s.%s@%d -> %s (host %s)\n",
				g.Name, g.Owner, g.Method, g.Position, g.Capability, g.Host)
		}
	}

	if len(r.HostUpdates) > 0 {
		fmt.Fprintln(w, "\nGroup hosts updated:")
		for _, u := range r.HostUpdates {
			fmt.Fprintf(w, "  %s  pass %d  +%d member(s)\n", u.Host, u.Pass, len(u.Added))
		}
	}

	if len(r.Failures) > 0 {
		fmt.Fprintf(w, "\nLeft %d call site(s) unrewritten:\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  [%s] %s.%s@%d: %s\n", f.Code, f.Record, f.Method, f.Position, f.Message)
		}
	}

	if len(r.Unresolved) > 0 {
		fmt.Fprintln(w, "\nHosts not found in the record set:")
		for _, h := range r.Unresolved {
			fmt.Fprintf(w, "  %s\n", h)
		}
	}
}
