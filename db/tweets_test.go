package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()

	ledger, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func TestRecordPostedThenHasPosted(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	posted, err := ledger.HasPosted(ctx, "m1")
	if err != nil {
		t.Fatalf("HasPosted() error = %v", err)
	}
	if posted {
		t.Fatal("HasPosted() = true on empty ledger")
	}

	if err := ledger.RecordPosted(ctx, "m1"); err != nil {
		t.Fatalf("RecordPosted() error = %v", err)
	}

	posted, err = ledger.HasPosted(ctx, "m1")
	if err != nil {
		t.Fatalf("HasPosted() error = %v", err)
	}
	if !posted {
		t.Error("HasPosted() = false after RecordPosted")
	}

	other, err := ledger.HasPosted(ctx, "m2")
	if err != nil {
		t.Fatalf("HasPosted() error = %v", err)
	}
	if other {
		t.Error("HasPosted(m2) = true, want false")
	}
}

func TestRecordPostedIgnoresDuplicates(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := ledger.RecordPosted(ctx, "m1"); err != nil {
			t.Fatalf("RecordPosted() #%d error = %v", i, err)
		}
	}

	entries, err := ledger.ListPosted(ctx)
	if err != nil {
		t.Fatalf("ListPosted() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("ListPosted() returned %d entries, want 1", len(entries))
	}
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids)*2)
	for _, id := range ids {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			errs <- ledger.RecordPosted(ctx, id)
		}(id)
		go func(id string) {
			defer wg.Done()
			_, err := ledger.HasPosted(ctx, id)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent ledger call error = %v", err)
		}
	}

	for _, id := range ids {
		posted, err := ledger.HasPosted(ctx, id)
		if err != nil || !posted {
			t.Errorf("HasPosted(%s) = %v, %v; want true, nil", id, posted, err)
		}
	}
}

func TestGetEntry(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	entry, err := ledger.GetEntry(ctx, "missing")
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if entry != nil {
		t.Errorf("GetEntry(missing) = %+v, want nil", entry)
	}

	if err := ledger.RecordPosted(ctx, "m1"); err != nil {
		t.Fatalf("RecordPosted() error = %v", err)
	}
	entry, err = ledger.GetEntry(ctx, "m1")
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if entry == nil || entry.MessageID != "m1" || entry.PostedAt.IsZero() {
		t.Errorf("GetEntry(m1) = %+v, want m1 with a timestamp", entry)
	}
}

func TestClosedLedgerErrors(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()
	ledger.Close()

	_, err := ledger.HasPosted(ctx, "m1")
	var readErr *LedgerReadError
	if !errors.As(err, &readErr) {
		t.Errorf("HasPosted() on closed ledger error = %v, want *LedgerReadError", err)
	}

	err = ledger.RecordPosted(ctx, "m1")
	var writeErr *LedgerWriteError
	if !errors.As(err, &writeErr) {
		t.Errorf("RecordPosted() on closed ledger error = %v, want *LedgerWriteError", err)
	}
	if writeErr != nil && writeErr.MessageID != "m1" {
		t.Errorf("LedgerWriteError.MessageID = %q, want m1", writeErr.MessageID)
	}
}

func TestOpenMigratesLegacyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open(dbDriver, path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	stmts := []string{
		"CREATE TABLE tweets (message_id TEXT)",
		"INSERT INTO tweets(message_id) VALUES('old1')",
		"INSERT INTO tweets(message_id) VALUES('old1')",
		"INSERT INTO tweets(message_id) VALUES('old2')",
	}
	for _, stmt := range stmts {
		if _, err := legacy.Exec(stmt); err != nil {
			t.Fatalf("Exec(%q) error = %v", stmt, err)
		}
	}
	legacy.Close()

	ledger, err := Open(path)
	if err != nil {
		t.Fatalf("Open() on legacy database error = %v", err)
	}
	defer ledger.Close()

	ctx := context.Background()
	for _, id := range []string{"old1", "old2"} {
		posted, err := ledger.HasPosted(ctx, id)
		if err != nil || !posted {
			t.Errorf("HasPosted(%s) = %v, %v; want true, nil", id, posted, err)
		}
	}

	entries, err := ledger.ListPosted(ctx)
	if err != nil {
		t.Fatalf("ListPosted() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("ListPosted() returned %d entries, want 2 after dedupe", len(entries))
	}
}
