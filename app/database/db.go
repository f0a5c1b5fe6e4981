package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the rerun history database connection
type DB struct {
	*sql.DB
}

// NewConnection opens (and creates if needed) the SQLite history database
func NewConnection(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// The history is written by a single process; one connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	return &DB{DB: db}, nil
}
