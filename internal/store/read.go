package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/pregen/internal/generate"
	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/transform"
)

// ReadRun returns the run with the given ID and its report rows.
// Returns ErrRunNotFound if no such run exists.
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	var (
		run                   Run
		rep                   transform.Report
		started, finished     string
		rewritten, unresolved string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, input_dir, output_dir, tool_version, format_version,
		       input_entries, output_entries, input_digest, output_digest, rewritten, unresolved
		FROM runs
		WHERE id = ?
	`, id).Scan(
		&rep.RunID, &started, &finished,
		&run.InputDir, &run.OutputDir, &run.ToolVersion, &run.FormatVersion,
		&rep.InputEntries, &rep.OutputEntries, &rep.InputDigest, &rep.OutputDigest,
		&rewritten, &unresolved,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}

	if rep.StartedAt, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}
	if rep.FinishedAt, err = parseTime(finished); err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}
	if rep.Rewritten, err = unmarshalNames(rewritten); err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}
	if rep.Unresolved, err = unmarshalNames(unresolved); err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}
	if rep.Generated, err = s.readGenerated(ctx, id); err != nil {
		return nil, err
	}
	if rep.Failures, err = s.readFailures(ctx, id); err != nil {
		return nil, err
	}
	if rep.HostUpdates, err = s.readUpdates(ctx, id); err != nil {
		return nil, err
	}

	run.Report = &rep
	return &run, nil
}

func (s *Store) readGenerated(ctx context.Context, runID string) ([]transform.GeneratedRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, name, owner, method, position, capability, host
		FROM generated_records
		WHERE run_id = ?
		ORDER BY path COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query generated records: %w", err)
	}
	defer rows.Close()

	var out []transform.GeneratedRecord
	for rows.Next() {
		var g transform.GeneratedRecord
		var name, owner, capability, host string
		if err := rows.Scan(&g.Path, &name, &owner, &g.Method, &g.Position, &capability, &host); err != nil {
			return nil, fmt.Errorf("scan generated record: %w", err)
		}
		g.Name, g.Owner = ir.TypeDesc(name), ir.TypeDesc(owner)
		g.Capability, g.Host = ir.TypeDesc(capability), ir.TypeDesc(host)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generated records: %w", err)
	}
	return out, nil
}

func (s *Store) readFailures(ctx context.Context, runID string) ([]transform.Failure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record, method, position, code, message
		FROM callsite_failures
		WHERE run_id = ?
		ORDER BY record COLLATE BINARY ASC, method COLLATE BINARY ASC, position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []transform.Failure
	for rows.Next() {
		var f transform.Failure
		var record, code string
		if err := rows.Scan(&record, &f.Method, &f.Position, &code, &f.Message); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		f.Record = ir.TypeDesc(record)
		f.Code = generate.CallSiteErrorCode(code)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return out, nil
}

func (s *Store) readUpdates(ctx context.Context, runID string) ([]transform.HostUpdate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT host, pass, added
		FROM group_updates
		WHERE run_id = ?
		ORDER BY pass ASC, host COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query group updates: %w", err)
	}
	defer rows.Close()

	var out []transform.HostUpdate
	for rows.Next() {
		var u transform.HostUpdate
		var host, added string
		if err := rows.Scan(&host, &u.Pass, &added); err != nil {
			return nil, fmt.Errorf("scan group update: %w", err)
		}
		u.Host = ir.TypeDesc(host)
		if u.Added, err = unmarshalNames(added); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group updates: %w", err)
	}
	return out, nil
}

// ListRuns returns a summary of every run, oldest first.
// Returns an empty slice (not nil) when the ledger is empty.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.input_dir, r.input_digest, r.output_digest,
		       (SELECT COUNT(*) FROM generated_records g WHERE g.run_id = r.id),
		       (SELECT COUNT(*) FROM callsite_failures f WHERE f.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var rs RunSummary
		var started, inDigest, outDigest string
		if err := rows.Scan(&rs.ID, &started, &rs.InputDir, &inDigest, &outDigest, &rs.Generated, &rs.Failures); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if rs.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		rs.Changed = inDigest != outDigest
		runs = append(runs, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
