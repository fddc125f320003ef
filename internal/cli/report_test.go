package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pregen/internal/store"
)

// transformWithLedger runs one transform recording into ledger and returns
// the run ID.
func transformWithLedger(t *testing.T, ledger string) string {
	t.Helper()
	in := t.TempDir()
	writeEntries(t, in, mainRecord().Entry(t, module))

	stdout, _, err := execute(t, "--format", "json", "transform", in, "-o", filepath.Join(t.TempDir(), "out"), "--ledger", ledger)
	require.NoError(t, err)
	var resp reportResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	return resp.Data.RunID
}

func TestReportCommand_ListAndShow(t *testing.T) {
	ledger := filepath.Join(t.TempDir(), "ledger.db")
	first := transformWithLedger(t, ledger)
	second := transformWithLedger(t, ledger)
	require.NotEqual(t, first, second)

	stdout, _, err := execute(t, "report", "--ledger", ledger)
	require.NoError(t, err)
	assert.Contains(t, stdout, "RUN")
	assert.Contains(t, stdout, first)
	assert.Contains(t, stdout, second)

	stdout, _, err = execute(t, "--format", "json", "report", "--ledger", ledger)
	require.NoError(t, err)
	var list struct {
		Data []store.RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	require.Len(t, list.Data, 2)
	assert.Equal(t, first, list.Data[0].ID, "oldest first")
	assert.Equal(t, 1, list.Data[0].Generated)
	assert.True(t, list.Data[0].Changed)

	stdout, _, err = execute(t, "report", "--ledger", ledger, first)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run "+first)
	assert.Contains(t, stdout, "app/Main$$Lambda$0")

	stdout, _, err = execute(t, "--format", "json", "report", "--ledger", ledger, second)
	require.NoError(t, err)
	var one struct {
		Data store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &one))
	require.NotNil(t, one.Data.Report)
	assert.Equal(t, second, one.Data.Report.RunID)
}

func TestReportCommand_EmptyLedger(t *testing.T) {
	ledger := filepath.Join(t.TempDir(), "ledger.db")
	st, err := store.Open(ledger)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	stdout, _, err := execute(t, "report", "--ledger", ledger)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs recorded.")
}

func TestReportCommand_Errors(t *testing.T) {
	ledger := filepath.Join(t.TempDir(), "ledger.db")
	st, err := store.Open(ledger)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"no ledger", []string{"report"}, ErrCodeLedger},
		{"missing ledger", []string{"report", "--ledger", filepath.Join(t.TempDir(), "absent.db")}, ErrCodeNotFound},
		{"unknown run", []string{"report", "--ledger", ledger, "no-such-run"}, ErrCodeRunNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, stdout, tt.code)
		})
	}
}
