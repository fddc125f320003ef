package harness

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/pregen/internal/codec"
	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/pool"
	"github.com/roach88/pregen/internal/transform"
)

// Check compares a run against the scenario's expectations and returns one
// message per mismatch.
func Check(s *Scenario, r *Result) []string {
	exp := s.Expect
	if exp.Error != "" {
		return checkError(exp.Error, r.Err)
	}
	if r.Err != nil {
		return []string{fmt.Sprintf("transform failed: %v", r.Err)}
	}

	var msgs []string
	add := func(err error) {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}

	rep := r.Report
	if exp.Rewritten != nil {
		add(compareNames("rewritten", exp.Rewritten, rep.Rewritten))
	}
	if exp.Generated != nil {
		got := make([]ir.TypeDesc, len(rep.Generated))
		for i, g := range rep.Generated {
			got[i] = g.Name
		}
		add(compareNames("generated", exp.Generated, got))
	}
	if exp.Unresolved != nil {
		add(compareNames("unresolved", exp.Unresolved, rep.Unresolved))
	}
	if exp.Failures != nil {
		got := make([]string, len(rep.Failures))
		for i, f := range rep.Failures {
			got[i] = string(f.Code)
		}
		if !slices.Equal(exp.Failures, got) {
			msgs = append(msgs, fmt.Sprintf("failures: expected %v, got %v", exp.Failures, got))
		}
	}

	hosts := make([]string, 0, len(exp.Members))
	for h := range exp.Members {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	for _, h := range hosts {
		add(checkMembers(s, r.Output, h, exp.Members[h]))
	}

	for _, name := range exp.Unchanged {
		add(checkUnchanged(s, r, name))
	}
	return msgs
}

func checkError(want string, err error) []string {
	if err == nil {
		return []string{fmt.Sprintf("error: expected %s, transform succeeded", want)}
	}
	var te *transform.TransformError
	if !errors.As(err, &te) {
		return []string{fmt.Sprintf("error: expected %s, got untyped error %v", want, err)}
	}
	if string(te.Code) != want {
		return []string{fmt.Sprintf("error: expected %s, got %s", want, te.Code)}
	}
	return nil
}

func compareNames(what string, want []string, got []ir.TypeDesc) error {
	if slices.Equal(typeDescs(want), got) {
		return nil
	}
	return fmt.Errorf("%s: expected %v, got %v", what, want, got)
}

// findRecord locates a record by name in any module of p.
func findRecord(s *Scenario, p *pool.Pool, name string) (pool.Entry, bool) {
	modules := []string{s.Module}
	for _, r := range s.Records {
		if r.Module != "" && !slices.Contains(modules, r.Module) {
			modules = append(modules, r.Module)
		}
	}
	for _, m := range modules {
		if e, ok := p.Find(pool.RecordPath(m, ir.TypeDesc(name))); ok {
			return e, true
		}
	}
	return pool.Entry{}, false
}

func checkMembers(s *Scenario, out *pool.Pool, host string, want []string) error {
	e, ok := findRecord(s, out, host)
	if !ok {
		return fmt.Errorf("members of %s: record not in output", host)
	}
	rec, err := codec.Parse(e.Content())
	if err != nil {
		return fmt.Errorf("members of %s: %w", host, err)
	}
	var got []ir.TypeDesc
	if gm, ok := rec.GroupMembers(); ok {
		got = gm.Members
	}
	return compareNames("members of "+host, want, got)
}

func checkUnchanged(s *Scenario, r *Result, name string) error {
	before, ok := findRecord(s, r.Input, name)
	if !ok {
		return fmt.Errorf("unchanged %s: record not in input", name)
	}
	after, ok := r.Output.Find(before.Path())
	if !ok {
		return fmt.Errorf("unchanged %s: record not in output", name)
	}
	if !bytes.Equal(before.Content(), after.Content()) {
		return fmt.Errorf("unchanged %s: content differs", name)
	}
	return nil
}
