package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/pregen/internal/pool"
	"github.com/roach88/pregen/internal/testutil"
	"github.com/roach88/pregen/internal/transform"
)

// CheckIdempotent transforms an already transformed set again and reports
// an error if anything changes. A rewritten set has no call sites left,
// so the second run must return its input unchanged.
func CheckIdempotent(out *pool.Pool) error {
	t := transform.New(transform.Config{Workers: 2},
		transform.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		transform.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(RunID+"-again")),
	)
	again, rep, err := t.Transform(context.Background(), out)
	if err != nil {
		return fmt.Errorf("second transform: %w", err)
	}
	if rep.Changed() {
		return fmt.Errorf("second transform changed the set: %s -> %s", rep.InputDigest, rep.OutputDigest)
	}
	if len(rep.Generated) > 0 || len(rep.Rewritten) > 0 {
		return fmt.Errorf("second transform generated %d and rewrote %d records", len(rep.Generated), len(rep.Rewritten))
	}
	if again.Len() != out.Len() {
		return fmt.Errorf("second transform: %d entries in, %d out", out.Len(), again.Len())
	}
	return nil
}
