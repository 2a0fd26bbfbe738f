package store

import (
	"context"
	"testing"
	"time"

	"github.com/roach88/inkwell/internal/notes"
)

func TestCreateNote_RoundTrip(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateNote(ctx, "  Groceries  ", "milk\neggs\n", true)
	if err != nil {
		t.Fatalf("CreateNote() failed: %v", err)
	}

	n, err := s.GetNote(ctx, id)
	if err != nil {
		t.Fatalf("GetNote() failed: %v", err)
	}
	if n.Title != "Groceries" {
		t.Errorf("title = %q, want trimmed %q", n.Title, "Groceries")
	}
	if n.Body != "milk\neggs\n" {
		t.Errorf("body = %q", n.Body)
	}
	if !n.Pinned {
		t.Error("pinned flag was not stored")
	}
	if n.CreatedAt != clock.Now().Unix() || n.UpdatedAt != clock.Now().Unix() {
		t.Errorf("timestamps = %d/%d, want %d", n.CreatedAt, n.UpdatedAt, clock.Now().Unix())
	}
	if n.Trashed() {
		t.Error("new note must not be trashed")
	}
	if len(n.Tags) != 0 {
		t.Errorf("new note has tags %v", n.Tags)
	}
}

func TestCreateNote_EmptyTitleRejected(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.CreateNote(context.Background(), "   ", "body", false)
	if !notes.IsInvalid(err) {
		t.Fatalf("empty title = %v, want INVALID", err)
	}
	if notes.IsQuerySyntax(err) {
		t.Error("a validation failure must not read as a query error")
	}
}

func TestGetNote_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetNote(context.Background(), 9999)
	if !notes.IsNotFound(err) {
		t.Errorf("GetNote(9999) = %v, want NOT_FOUND", err)
	}
}

func TestUpdateNote_Patch(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, "Old title", "old body")
	created := clock.Now().Unix()
	clock.Advance(time.Minute)

	title := "New title"
	if err := s.UpdateNote(ctx, id, notes.Patch{Title: &title}, created); err != nil {
		t.Fatalf("UpdateNote() failed: %v", err)
	}

	n, err := s.GetNote(ctx, id)
	if err != nil {
		t.Fatalf("GetNote() failed: %v", err)
	}
	if n.Title != "New title" {
		t.Errorf("title = %q, want %q", n.Title, "New title")
	}
	if n.Body != "old body" {
		t.Errorf("body changed by title-only patch: %q", n.Body)
	}
	if n.UpdatedAt <= created {
		t.Errorf("updated_at did not advance: %d <= %d", n.UpdatedAt, created)
	}
	if n.CreatedAt != created {
		t.Errorf("created_at changed: %d, want %d", n.CreatedAt, created)
	}
}

func TestUpdateNote_StaleTokenConflicts(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, "Note", "v1")
	stale := clock.Now().Unix()

	// Another writer advances the row
	clock.Advance(time.Minute)
	body := "v2"
	if err := s.UpdateNote(ctx, id, notes.Patch{Body: &body}, stale); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	clock.Advance(time.Minute)
	body = "v3"
	err := s.UpdateNote(ctx, id, notes.Patch{Body: &body}, stale)
	if !notes.IsConflict(err) {
		t.Fatalf("stale update = %v, want CONFLICT", err)
	}

	// The rejected write must not have changed the row
	n, _ := s.GetNote(ctx, id)
	if n.Body != "v2" {
		t.Errorf("body after conflict = %q, want %q", n.Body, "v2")
	}
}

func TestUpdateNote_ZeroTokenSkipsCheck(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, "Note", "v1")
	clock.Advance(time.Minute)

	body := "replayed draft"
	if err := s.UpdateNote(ctx, id, notes.Patch{Body: &body}, 0); err != nil {
		t.Fatalf("UpdateNote(lastUpdatedAt=0) failed: %v", err)
	}

	n, _ := s.GetNote(ctx, id)
	if n.Body != "replayed draft" {
		t.Errorf("body = %q", n.Body)
	}
}

func TestUpdateNote_TrashedIsNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, "Note", "body")
	if err := s.SoftDeleteNote(ctx, id); err != nil {
		t.Fatalf("SoftDeleteNote() failed: %v", err)
	}

	body := "edit"
	err := s.UpdateNote(ctx, id, notes.Patch{Body: &body}, 0)
	if !notes.IsNotFound(err) {
		t.Errorf("update of trashed note = %v, want NOT_FOUND", err)
	}
}

func TestSetFlags(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, "Note", "body")

	pinned, archived := true, true
	if err := s.SetFlags(ctx, id, notes.Flags{Pinned: &pinned, Archived: &archived}); err != nil {
		t.Fatalf("SetFlags() failed: %v", err)
	}

	n, _ := s.GetNote(ctx, id)
	if !n.Pinned || !n.Archived {
		t.Errorf("flags = pinned:%v archived:%v, want both true", n.Pinned, n.Archived)
	}

	// Clear only pinned; archived must survive
	unpinned := false
	if err := s.SetFlags(ctx, id, notes.Flags{Pinned: &unpinned}); err != nil {
		t.Fatalf("SetFlags() failed: %v", err)
	}
	n, _ = s.GetNote(ctx, id)
	if n.Pinned || !n.Archived {
		t.Errorf("flags = pinned:%v archived:%v, want false/true", n.Pinned, n.Archived)
	}
}

func TestTrashRestore_PreservesState(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, "Keep me", "body")
	pinned := true
	if err := s.SetFlags(ctx, id, notes.Flags{Pinned: &pinned}); err != nil {
		t.Fatalf("SetFlags() failed: %v", err)
	}
	mustAddTag(t, s, id, "home")

	clock.Advance(time.Hour)
	if err := s.SoftDeleteNote(ctx, id); err != nil {
		t.Fatalf("SoftDeleteNote() failed: %v", err)
	}

	n, err := s.GetNote(ctx, id)
	if err != nil {
		t.Fatalf("GetNote() of trashed note failed: %v", err)
	}
	if !n.Trashed() {
		t.Fatal("note not marked trashed")
	}

	if err := s.RestoreNote(ctx, id); err != nil {
		t.Fatalf("RestoreNote() failed: %v", err)
	}
	n, _ = s.GetNote(ctx, id)
	if n.Trashed() {
		t.Error("note still trashed after restore")
	}
	if !n.Pinned {
		t.Error("pinned flag lost through trash/restore")
	}
	if len(n.Tags) != 1 || n.Tags[0] != "home" {
		t.Errorf("tags lost through trash/restore: %v", n.Tags)
	}
}

func TestSoftDeleteNote_AlreadyTrashed(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, "Note", "body")
	if err := s.SoftDeleteNote(ctx, id); err != nil {
		t.Fatalf("first trash failed: %v", err)
	}
	if err := s.SoftDeleteNote(ctx, id); !notes.IsNotFound(err) {
		t.Errorf("second trash = %v, want NOT_FOUND", err)
	}
}

func TestRestoreNote_NotTrashed(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, "Note", "body")
	if err := s.RestoreNote(ctx, id); !notes.IsNotFound(err) {
		t.Errorf("restore of live note = %v, want NOT_FOUND", err)
	}
}

func TestSeed_OnlyOnEmptyStore(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Seed(ctx); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	first, err := s.ListNotes(ctx, notes.ListOptions{})
	if err != nil {
		t.Fatalf("ListNotes() failed: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("seed inserted no notes")
	}

	// Seeding again must be a no-op
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("second Seed() failed: %v", err)
	}
	second, _ := s.ListNotes(ctx, notes.ListOptions{})
	if len(second) != len(first) {
		t.Errorf("second seed changed note count: %d -> %d", len(first), len(second))
	}
}
