package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pregen/internal/codec"
	"github.com/roach88/pregen/internal/ir"
)

// InspectResult is the JSON payload of the inspect command.
type InspectResult struct {
	File        string         `json:"file"`
	ContentHash string         `json:"content_hash"`
	Record      map[string]any `json:"record"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file.rec>",
		Short: "Print a record in readable form",
		Long: `Decode a single record file and print its listing.

Text output is the line-oriented disassembly; JSON output is the record
tree together with its content hash.

Examples:
  pregen inspect ./out/app/app/Main$$Lambda$0.rec
  pregen inspect ./out/app/app/Main.rec --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInspect(opts *RootOptions, file string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	content, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("file not found: %s", file), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScanError, "reading record", err)
	}

	rec, err := codec.Parse(content)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadRecord, fmt.Sprintf("cannot decode %s", file), err)
	}

	if formatter.Format == "json" {
		return formatter.Success(InspectResult{
			File:        file,
			ContentHash: ir.ContentHash(content),
			Record:      ir.Dump(rec),
		})
	}
	fmt.Fprint(formatter.Writer, ir.Disassemble(rec))
	return nil
}
