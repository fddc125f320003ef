package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ledgerVersion is stored in user_version. Bump it with every change to
// schema.sql that older readers cannot ignore.
const ledgerVersion = 1

// connParams are applied by the driver to every connection it opens.
const connParams = "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"

// ErrNewerLedger is returned by Open for a ledger written by a newer
// release.
var ErrNewerLedger = errors.New("store: ledger has a newer schema version")

// Store is the SQLite ledger of transform runs.
type Store struct {
	db *sql.DB
}

// Open opens the ledger at path, creating it if needed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	// One writer at a time; a second connection would only see SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initLedger(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the ledger.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initLedger creates the tables of an empty ledger and stamps its version.
// An existing ledger of the current version is left alone.
func initLedger(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read ledger version: %w", err)
	}
	if version > ledgerVersion {
		return fmt.Errorf("%w: %d, this build reads %d", ErrNewerLedger, version, ledgerVersion)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if version < ledgerVersion {
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", ledgerVersion)); err != nil {
			return fmt.Errorf("stamp ledger version: %w", err)
		}
	}
	return tx.Commit()
}
