package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pregen/internal/ir"
)

func TestInspectCommand_Text(t *testing.T) {
	file := filepath.Join(t.TempDir(), "Main.rec")
	require.NoError(t, os.WriteFile(file, mainRecord().Encode(t), 0o644))

	stdout, _, err := execute(t, "inspect", file)
	require.NoError(t, err)
	assert.Equal(t, ir.Disassemble(mainRecord().Build()), stdout)
	assert.Contains(t, stdout, "class app/Main")
}

func TestInspectCommand_JSON(t *testing.T) {
	content := mainRecord().Encode(t)
	file := filepath.Join(t.TempDir(), "Main.rec")
	require.NoError(t, os.WriteFile(file, content, 0o644))

	stdout, _, err := execute(t, "--format", "json", "inspect", file)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   InspectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ir.ContentHash(content), resp.Data.ContentHash)
	assert.Equal(t, "app/Main", resp.Data.Record["name"])
}

func TestInspectCommand_Errors(t *testing.T) {
	garbage := filepath.Join(t.TempDir(), "bad.rec")
	require.NoError(t, os.WriteFile(garbage, []byte("not a record"), 0o644))

	tests := []struct {
		name string
		file string
		code string
	}{
		{"missing", filepath.Join(t.TempDir(), "absent.rec"), ErrCodeNotFound},
		{"undecodable", garbage, ErrCodeBadRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, "inspect", tt.file)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, stdout, tt.code)
		})
	}
}
