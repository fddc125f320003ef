package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/pool"
	"github.com/roach88/pregen/internal/testutil"
)

const module = "app.base"

// writeEntries lays entries out under dir the way ReadTree reads them.
func writeEntries(t *testing.T, dir string, entries ...pool.Entry) {
	t.Helper()
	for _, e := range entries {
		target := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(e.Path(), "/")))
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
		require.NoError(t, os.WriteFile(target, e.Content(), 0o644))
	}
}

// mainRecord is a record with one supplier call site bound to a private
// static method.
func mainRecord() *testutil.RecordBuilder {
	return testutil.Class("app/Main").
		Method("run", "()fn/Supplier", testutil.Supplier("app/Main", "lambda$run$0"), ir.Return{Type: "fn/Supplier"}).
		StaticMethod("lambda$run$0", "()lang/String", ir.Const{Value: ir.StringConst("hi")}, ir.Return{Type: "lang/String"})
}

// recordFile is the on-disk location of a record under a tree root.
func recordFile(root string, name ir.TypeDesc) string {
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(pool.RecordPath(module, name), "/")))
}

// execute runs the root command with args and returns stdout, stderr and
// the command error. The config flag points at an absent file unless args
// set it.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	full := append([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, args...)
	cmd.SetArgs(full)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
