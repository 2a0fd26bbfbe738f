package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// testClock is a manually advanced clock for deterministic timestamps.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// newTestStore opens a store in a temp dir with a deterministic clock.
func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()

	clock := newTestClock()
	path := filepath.Join(t.TempDir(), "notes.db")
	s, err := Open(path, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// mustCreate inserts a note and fails the test on error.
func mustCreate(t *testing.T, s *Store, title, body string) int64 {
	t.Helper()

	id, err := s.CreateNote(context.Background(), title, body, false)
	if err != nil {
		t.Fatalf("CreateNote(%q) failed: %v", title, err)
	}
	return id
}

// mustAddTag attaches a tag and fails the test on error.
func mustAddTag(t *testing.T, s *Store, noteID int64, name string) {
	t.Helper()

	if err := s.AddTag(context.Background(), noteID, name); err != nil {
		t.Fatalf("AddTag(%d, %q) failed: %v", noteID, name, err)
	}
}
