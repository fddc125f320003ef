package store

import (
	"errors"
	"time"

	"github.com/roach88/pregen/internal/transform"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("store: run not found")

// RunMeta is what the ledger records about a run besides its report.
type RunMeta struct {
	InputDir      string `json:"input_dir"`
	OutputDir     string `json:"output_dir"`
	ToolVersion   string `json:"tool_version"`
	FormatVersion int    `json:"format_version"`
}

// Run is one ledger entry.
type Run struct {
	RunMeta
	Report *transform.Report `json:"report"`
}

// RunSummary is one row of ListRuns.
type RunSummary struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	InputDir  string    `json:"input_dir"`
	Generated int       `json:"generated"`
	Failures  int       `json:"failures"`
	Changed   bool      `json:"changed"`
}
