package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")

	// Open multiple times
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	// Verify schema is intact
	tables := []string{"notes", "tags", "note_tags", "backups", "fts_notes"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_DataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	id := mustCreate(t, s1, "Persistent", "survives reopen")
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	n, err := s2.GetNote(context.Background(), id)
	if err != nil {
		t.Fatalf("GetNote() after reopen failed: %v", err)
	}
	if n.Title != "Persistent" {
		t.Errorf("title = %q, want %q", n.Title, "Persistent")
	}
}

func TestOpen_SetsSchemaVersion(t *testing.T) {
	s, _ := newTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestOpen_WALMode(t *testing.T) {
	s, _ := newTestStore(t)

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestCheckpoint(t *testing.T) {
	s, _ := newTestStore(t)

	mustCreate(t, s, "Note", "some body")
	if err := s.Checkpoint(context.Background()); err != nil {
		t.Errorf("Checkpoint() failed: %v", err)
	}
}

func TestRebuildIndex(t *testing.T) {
	s, _ := newTestStore(t)

	mustCreate(t, s, "Rebuild target", "indexed body")
	if err := s.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("RebuildIndex() failed: %v", err)
	}

	// The rebuilt mirror must still match the notes table
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM fts_notes WHERE fts_notes MATCH 'rebuild'",
	).Scan(&count)
	if err != nil {
		t.Fatalf("query rebuilt index: %v", err)
	}
	if count != 1 {
		t.Errorf("indexed rows matching 'rebuild' = %d, want 1", count)
	}
}
