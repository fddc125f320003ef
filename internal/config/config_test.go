package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pregen/internal/scan"
	"github.com/roach88/pregen/internal/synth"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, string(scan.DefaultFactoryOwner), cfg.FactoryOwner)
	assert.Equal(t, synth.DefaultEntryMethod, cfg.EntryMethod)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.Empty(t, cfg.Ledger)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pregen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
factory_owner: custom/Factory
entry_method: make
workers: 3
ledger: runs.db
log_level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		FactoryOwner: "custom/Factory",
		EntryMethod:  "make",
		Workers:      3,
		Ledger:       "runs.db",
		LogLevel:     "debug",
	}, cfg)
	assert.Equal(t, slog.LevelDebug, cfg.Level())

	tc := cfg.Transform()
	assert.Equal(t, "custom/Factory", string(tc.FactoryOwner))
	assert.Equal(t, "make", tc.EntryMethod)
	assert.Equal(t, 3, tc.Workers)
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("workers: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, Default().EntryMethod, cfg.EntryMethod)
	assert.Equal(t, Default().FactoryOwner, cfg.FactoryOwner)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("worker: 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker")
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"zero workers", "workers: 0\n", "workers"},
		{"negative workers", "workers: -4\n", "workers"},
		{"bad log level", "log_level: loud\n", "log_level"},
		{"empty entry method", "entry_method: \"\"\n", "entry_method"},
		{"constructor entry method", "entry_method: <init>\n", "entry_method"},
		{"array factory owner", "factory_owner: \"[x\"\n", "factory_owner"},
		{"trailing slash owner", "factory_owner: a/\n", "factory_owner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, Config{LogLevel: name}.Level(), name)
	}
}
