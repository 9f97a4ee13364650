package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// OpenPostgres opens a Postgres-backed Repository at dsn (e.g. the
// DATABASE_URL environment variable) and applies any pending migrations.
func OpenPostgres(dsn string) (Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: ping postgres: %w", err)
	}
	repo, err := newSQLRepository(db, postgresPlaceholder)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}
