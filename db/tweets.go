package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"twitterbot/model"
)

// LedgerReadError means the ledger could not answer whether a message was posted.
type LedgerReadError struct {
	MessageID string
	Err       error
}

func (e *LedgerReadError) Error() string {
	return fmt.Sprintf("ledger read for message %s: %v", e.MessageID, e.Err)
}

func (e *LedgerReadError) Unwrap() error { return e.Err }

// LedgerWriteError means a posted message could not be recorded.
type LedgerWriteError struct {
	MessageID string
	Err       error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("ledger write for message %s: %v", e.MessageID, e.Err)
}

func (e *LedgerWriteError) Unwrap() error { return e.Err }

// HasPosted reports whether a tweet was already made for the message.
func (l *Ledger) HasPosted(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM tweets WHERE message_id = ?)", messageID).Scan(&exists)
	if err != nil {
		return false, &LedgerReadError{MessageID: messageID, Err: err}
	}
	return exists, nil
}

// RecordPosted inserts the message into the ledger. Recording the same message
// twice is a no-op.
func (l *Ledger) RecordPosted(ctx context.Context, messageID string) error {
	_, err := l.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO tweets(message_id, posted_at) VALUES(?, ?)",
		messageID, time.Now().Unix(),
	)
	if err != nil {
		return &LedgerWriteError{MessageID: messageID, Err: err}
	}
	return nil
}

// GetEntry retrieves a single ledger entry.
func (l *Ledger) GetEntry(ctx context.Context, messageID string) (*model.LedgerEntry, error) {
	row := l.db.QueryRowContext(ctx, "SELECT message_id, posted_at FROM tweets WHERE message_id = ?", messageID)

	entry, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not posted is not an error
		}
		return nil, &LedgerReadError{MessageID: messageID, Err: err}
	}
	return entry, nil
}

// ListPosted returns every ledger entry, newest first.
func (l *Ledger) ListPosted(ctx context.Context) ([]model.LedgerEntry, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT message_id, posted_at FROM tweets ORDER BY posted_at DESC, rowid DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// rowScanner is an interface that can be satisfied by *sql.Row or *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(scanner rowScanner) (*model.LedgerEntry, error) {
	var (
		entry    model.LedgerEntry
		postedAt int64
	)
	if err := scanner.Scan(&entry.MessageID, &postedAt); err != nil {
		return nil, err
	}
	if postedAt > 0 {
		entry.PostedAt = time.Unix(postedAt, 0)
	}
	return &entry, nil
}
