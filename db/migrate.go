package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// createTables 如果数据库中不存在必要的表，则创建它们
func createTables(conn *sql.DB) error {
	createTweetsTableSQL := `
	CREATE TABLE IF NOT EXISTS tweets (
		message_id TEXT PRIMARY KEY,
		posted_at INTEGER NOT NULL DEFAULT 0
	);`

	if _, err := conn.Exec(createTweetsTableSQL); err != nil {
		return fmt.Errorf("create tweets table: %w", err)
	}

	// Databases written by the first version of the bot have a bare
	// message_id column and no posted_at.
	_, err := conn.Exec("ALTER TABLE tweets ADD COLUMN posted_at INTEGER NOT NULL DEFAULT 0")
	if err != nil && !isColumnExistsError(err) {
		return fmt.Errorf("add posted_at column: %w", err)
	}

	// Old tables have no primary key either, so uniqueness comes from an index.
	// Rows duplicated by the old bot are collapsed first or the index can't be built.
	_, err = conn.Exec("DELETE FROM tweets WHERE rowid NOT IN (SELECT MIN(rowid) FROM tweets GROUP BY message_id)")
	if err != nil {
		return fmt.Errorf("dedupe tweets: %w", err)
	}

	_, err = conn.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_tweets_message_id ON tweets(message_id)")
	if err != nil {
		return fmt.Errorf("create tweets index: %w", err)
	}

	return nil
}

// isColumnExistsError checks if the error is due to column already existing
func isColumnExistsError(err error) bool {
	return strings.Contains(err.Error(), "duplicate column name")
}
