package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pregen/internal/codec"
	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/transform"
)

// Snapshot renders a successful run as text: a report section followed by
// every output entry in path order, records disassembled.
func Snapshot(r *Result) (string, error) {
	if r.Err != nil {
		return "", fmt.Errorf("snapshot of failed run: %w", r.Err)
	}
	var b strings.Builder
	writeReport(&b, r.Report)
	for e := range r.Output.Entries() {
		fmt.Fprintf(&b, "== %s ==\n", e.Path())
		if !e.IsRecord() {
			fmt.Fprintf(&b, "resource %d bytes\n", len(e.Content()))
			continue
		}
		rec, err := codec.Parse(e.Content())
		if err != nil {
			return "", fmt.Errorf("snapshot %s: %w", e.Path(), err)
		}
		b.WriteString(ir.Disassemble(rec))
	}
	return b.String(), nil
}

func writeReport(b *strings.Builder, rep *transform.Report) {
	b.WriteString("== report ==\n")
	if !rep.Changed() {
		b.WriteString("unchanged\n")
	}
	for _, name := range rep.Rewritten {
		fmt.Fprintf(b, "rewritten %s\n", name)
	}
	for _, g := range rep.Generated {
		fmt.Fprintf(b, "generated %s from %s.%s@%d host %s\n", g.Name, g.Owner, g.Method, g.Position, g.Host)
	}
	for _, u := range rep.HostUpdates {
		added := make([]string, len(u.Added))
		for i, a := range u.Added {
			added[i] = string(a)
		}
		fmt.Fprintf(b, "update pass %d %s + %s\n", u.Pass, u.Host, strings.Join(added, " "))
	}
	for _, f := range rep.Failures {
		fmt.Fprintf(b, "failure %s %s.%s@%d\n", f.Code, f.Record, f.Method, f.Position)
	}
	for _, h := range rep.Unresolved {
		fmt.Fprintf(b, "unresolved %s\n", h)
	}
}

// RunWithGolden executes a scenario, fails the test on unmet expectations,
// and compares the snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}
	if result.Err != nil {
		return result, nil
	}

	snapshot, err := Snapshot(result)
	if err != nil {
		return result, err
	}
	AssertGolden(t, scenario.Name, snapshot)
	return result, nil
}

// AssertGolden compares a snapshot against its golden file.
func AssertGolden(t *testing.T, name, snapshot string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(snapshot))
}
