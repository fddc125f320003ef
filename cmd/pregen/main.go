// Command pregen rewrites factory call sites in a record tree into direct
// calls to pregenerated records.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pregen/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
