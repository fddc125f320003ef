package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WriteRun records a run and all of its report rows in one transaction.
// Uses ON CONFLICT DO NOTHING for idempotency: writing the same run ID
// again leaves the stored run as it was and reports inserted=false.
func (s *Store) WriteRun(ctx context.Context, run Run) (inserted bool, err error) {
	if run.Report == nil {
		return false, errors.New("write run: nil report")
	}
	rep := run.Report

	rewritten, err := marshalNames(rep.Rewritten)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	unresolved, err := marshalNames(rep.Unresolved)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, finished_at, input_dir, output_dir, tool_version, format_version,
		 input_entries, output_entries, input_digest, output_digest, rewritten, unresolved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rep.RunID,
		formatTime(rep.StartedAt),
		formatTime(rep.FinishedAt),
		run.InputDir,
		run.OutputDir,
		run.ToolVersion,
		run.FormatVersion,
		rep.InputEntries,
		rep.OutputEntries,
		rep.InputDigest,
		rep.OutputDigest,
		rewritten,
		unresolved,
	)
	if err != nil {
		return false, fmt.Errorf("write run: insert run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := writeGenerated(ctx, tx, run); err != nil {
		return false, err
	}
	if err := writeFailures(ctx, tx, run); err != nil {
		return false, err
	}
	if err := writeUpdates(ctx, tx, run); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run: commit: %w", err)
	}
	return true, nil
}

func writeGenerated(ctx context.Context, tx *sql.Tx, run Run) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO generated_records
		(run_id, path, name, owner, method, position, capability, host)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write generated records: prepare: %w", err)
	}
	defer stmt.Close()

	for _, g := range run.Report.Generated {
		if _, err := stmt.ExecContext(ctx,
			run.Report.RunID, g.Path, string(g.Name), string(g.Owner), g.Method, g.Position,
			string(g.Capability), string(g.Host),
		); err != nil {
			return fmt.Errorf("write generated record %s: %w", g.Path, err)
		}
	}
	return nil
}

func writeFailures(ctx context.Context, tx *sql.Tx, run Run) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO callsite_failures
		(run_id, record, method, position, code, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write failures: prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range run.Report.Failures {
		if _, err := stmt.ExecContext(ctx,
			run.Report.RunID, string(f.Record), f.Method, f.Position, string(f.Code), f.Message,
		); err != nil {
			return fmt.Errorf("write failure %s.%s@%d: %w", f.Record, f.Method, f.Position, err)
		}
	}
	return nil
}

func writeUpdates(ctx context.Context, tx *sql.Tx, run Run) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO group_updates
		(run_id, host, pass, added)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write group updates: prepare: %w", err)
	}
	defer stmt.Close()

	for _, u := range run.Report.HostUpdates {
		added, err := marshalNames(u.Added)
		if err != nil {
			return fmt.Errorf("write group update %s: %w", u.Host, err)
		}
		if _, err := stmt.ExecContext(ctx, run.Report.RunID, string(u.Host), u.Pass, added); err != nil {
			return fmt.Errorf("write group update %s: %w", u.Host, err)
		}
	}
	return nil
}
