package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/pregen/internal/generate"
	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/transform"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// verifyPragma checks that a pragma reads back as expected.
func verifyPragma(s *Store, name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

var testStart = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// createTestRun creates a run with one row in every report table.
func createTestRun(id string, offset time.Duration) Run {
	started := testStart.Add(offset)
	return Run{
		RunMeta: RunMeta{
			InputDir:      "in",
			OutputDir:     "out",
			ToolVersion:   ir.ToolVersion,
			FormatVersion: ir.FormatVersion,
		},
		Report: &transform.Report{
			RunID:         id,
			StartedAt:     started,
			FinishedAt:    started.Add(1500 * time.Millisecond),
			InputEntries:  2,
			OutputEntries: 3,
			InputDigest:   "in-digest",
			OutputDigest:  "out-digest",
			Rewritten:     []ir.TypeDesc{"app/A"},
			Generated: []transform.GeneratedRecord{{
				Name:       "app/A$$Lambda$0",
				Path:       "/app.base/app/A$$Lambda$0.rec",
				Owner:      "app/A",
				Method:     "run()void",
				Position:   0,
				Capability: "fn/Supplier",
				Host:       "app/B",
			}},
			Failures: []transform.Failure{{
				Code:     generate.CodeUnsupported,
				Record:   "app/A",
				Method:   "run()void",
				Position: 3,
				Message:  "not yet supported",
			}},
			HostUpdates: []transform.HostUpdate{{Host: "app/B", Pass: 2, Added: []ir.TypeDesc{"app/A$$Lambda$0"}}},
		},
	}
}
