package history

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStore_OpenInitializesSchemaAndSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "aspectwatch.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	session := NewSessionID()
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	moment := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	first := Snapshot{
		Timestamp:     base,
		Moment:        moment,
		JulianDay:     2460390.0,
		Ayanamsa:      24.19,
		Orb:           3,
		AspectCount:   4,
		PositiveCount: 2,
		NegativeCount: 2,
	}
	dup := first
	dup.AspectCount = 6
	dup.NeutralCount = 2
	second := Snapshot{
		Timestamp:     base.Add(2 * time.Hour),
		Moment:        moment.Add(15 * time.Minute),
		Orb:           3,
		Filter:        "Moon",
		AspectCount:   3,
		PositiveCount: 1,
		NegativeCount: 1,
		NeutralCount:  1,
		CloseCount:    2,
	}

	if err := store.SaveSnapshot(session, first); err != nil {
		t.Fatalf("save first snapshot: %v", err)
	}
	if err := store.SaveSnapshot(session, dup); err != nil {
		t.Fatalf("save duplicate snapshot: %v", err)
	}
	if err := store.SaveSnapshot(session, second); err != nil {
		t.Fatalf("save second snapshot: %v", err)
	}

	got, err := store.LoadSnapshots(session, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("load snapshots: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 snapshot after since filter, got %d", len(got))
	}
	if got[0].CloseCount != 2 || got[0].Filter != "Moon" {
		t.Fatalf("unexpected snapshot: %+v", got[0])
	}
	if !got[0].Moment.Equal(moment.Add(15 * time.Minute)) {
		t.Fatalf("moment did not roundtrip: %s", got[0].Moment)
	}

	// Same session and timestamp upserts.
	all, err := store.LoadSnapshots(session, time.Time{})
	if err != nil {
		t.Fatalf("load all snapshots: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected deduplicated 2 snapshots, got %d", len(all))
	}
	if all[0].AspectCount != 6 || all[0].NeutralCount != 2 {
		t.Fatalf("expected upserted counts, got %+v", all[0])
	}
	if all[0].Filter != "All" {
		t.Fatalf("expected default filter, got %q", all[0].Filter)
	}
	if all[0].SchemaVersion != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, all[0].SchemaVersion)
	}
}

func TestStore_SaveRequiresSession(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "aspectwatch.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.SaveSnapshot("  ", Snapshot{}); err == nil {
		t.Fatal("expected error for empty session id")
	}
	if err := store.SaveSnapshot(NewSessionID(), Snapshot{SchemaVersion: 99}); err == nil {
		t.Fatal("expected error for unsupported schema version")
	}
}

func TestStore_SessionIsolation(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "aspectwatch.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	a, b := NewSessionID(), NewSessionID()
	if a == b {
		t.Fatal("session ids must be unique")
	}
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	if err := store.SaveSnapshot(a, Snapshot{Timestamp: base, AspectCount: 1}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSnapshot(b, Snapshot{Timestamp: base, AspectCount: 2}); err != nil {
		t.Fatal(err)
	}

	aRows, err := store.LoadSnapshots(a, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(aRows) != 1 || aRows[0].AspectCount != 1 || aRows[0].SessionID != a {
		t.Fatalf("unexpected session a rows: %+v", aRows)
	}

	all, err := store.LoadSnapshots("", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected rows from both sessions, got %d", len(all))
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aspectwatch.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aspectwatch.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, err = store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureSchema_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aspectwatch.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if reopened.Path() != path {
		t.Fatalf("path = %q, want %q", reopened.Path(), path)
	}
}

func TestIsCorruptError(t *testing.T) {
	if !IsCorruptError(errors.New("database disk image is malformed")) {
		t.Fatal("expected malformed sqlite message to be treated as corrupt")
	}
	if IsCorruptError(nil) {
		t.Fatal("nil is not corrupt")
	}
}
