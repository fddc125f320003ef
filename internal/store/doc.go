// Package store is the SQLite ledger of transform runs.
//
// Each run is written in one transaction:
//   - runs: identity, timing, entry counts, input/output digests
//   - generated_records: one row per generated record
//   - callsite_failures: call sites left unrewritten, with their code
//   - group_updates: member additions per host and pass
//
// Writes are idempotent on the run ID. Every read orders by a
// deterministic key (ORDER BY ... COLLATE BINARY) so reports read back
// identically across databases.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Name lists are stored as RFC 8785 canonical JSON produced by
// ir.MarshalCanonical.
package store
