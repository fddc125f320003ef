package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/pregen/internal/testutil"
	"github.com/roach88/pregen/internal/transform"
)

// RunID is the fixed run ID of every scenario run.
const RunID = "scenario-run"

// Run executes a scenario and checks its expectations.
//
// Deterministic helpers give every run the same run ID and timestamps, so
// two runs of one scenario produce equal reports. An error is returned only when
// the scenario cannot be executed at all; a transform failure is recorded
// in Result.Err and judged against Expect.Error.
func Run(s *Scenario) (*Result, error) {
	in, err := BuildInput(s)
	if err != nil {
		return nil, fmt.Errorf("build input: %w", err)
	}

	workers := s.Workers
	if workers == 0 {
		workers = 2
	}
	t := transform.New(
		transform.Config{Workers: workers, EntryMethod: s.EntryMethod},
		transform.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
		transform.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(RunID)),
		transform.WithClock(testutil.NewStepClock().Now),
	)

	result := NewResult()
	result.Input = in
	result.Output, result.Report, result.Err = t.Transform(context.Background(), in)

	for _, msg := range Check(s, result) {
		result.AddError(msg)
	}
	return result, nil
}
