package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const (
	dbDriver = "sqlite3"
	// DefaultSource is where the ledger lives unless DATABASE_PATH says otherwise.
	DefaultSource = "./database.db"
)

// Ledger is the durable record of messages that have already been tweeted.
type Ledger struct {
	db *sql.DB
}

// Open opens the SQLite database at path and creates the tables if they don't exist.
func Open(path string) (*Ledger, error) {
	if path == "" {
		path = DefaultSource
	}

	conn, err := sql.Open(dbDriver, path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// createTables is defined in migrate.go
	if err := createTables(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &Ledger{db: conn}, nil
}

// Close releases the underlying connection pool.
func (l *Ledger) Close() error {
	return l.db.Close()
}
