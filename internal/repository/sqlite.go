package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens a SQLite-backed Repository at path (or ":memory:" for
// tests) and applies any pending migrations.
func OpenSQLite(path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("repository: open sqlite: %w", err)
	}
	// mattn/go-sqlite3 serializes writes at the driver level; a single
	// connection avoids "database is locked" under concurrent sweeps.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: ping sqlite: %w", err)
	}
	repo, err := newSQLRepository(db, sqlitePlaceholder)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}
