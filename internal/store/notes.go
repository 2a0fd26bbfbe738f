package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/inkwell/internal/notes"
)

// CreateNote inserts a new note and returns its id. The title must be
// non-empty after trimming; the body may be empty. The full-text mirror is
// updated by trigger inside the same implicit transaction.
func (s *Store) CreateNote(ctx context.Context, title, body string, pinned bool) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, &notes.Error{
			Code:    notes.ErrCodeInvalid,
			Message: "note title cannot be empty",
		}
	}

	now := s.now().Unix()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (title, body, created_at, updated_at, pinned, archived)
		VALUES (?, ?, ?, ?, ?, 0)
	`, title, body, now, now, boolInt(pinned))
	if err != nil {
		return 0, mapSQLiteErr(fmt.Errorf("create note: %w", err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create note: last insert id: %w", err)
	}
	return id, nil
}

// GetNote returns a single note by id, including trashed ones, with its
// tags populated. Returns NOT_FOUND if the id does not exist at all.
func (s *Store) GetNote(ctx context.Context, id int64) (notes.Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes n
		LEFT JOIN note_tags nt ON nt.note_id = n.id
		LEFT JOIN tags t ON t.id = nt.tag_id
		WHERE n.id = ?
		GROUP BY n.id
	`, id)

	n, err := scanNoteRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return notes.Note{}, notes.NewNotFound(id)
	}
	if err != nil {
		return notes.Note{}, mapSQLiteErr(fmt.Errorf("get note %d: %w", id, err))
	}
	return n, nil
}

// UpdateNote applies a partial update to a live note. lastUpdatedAt is the
// updated_at value the caller last read; if the row has advanced past it
// the update is rejected with CONFLICT and the caller must reload.
// Pass lastUpdatedAt = 0 to skip the optimistic check (journal replay uses
// this: the draft is authoritative by user choice).
func (s *Store) UpdateNote(ctx context.Context, id int64, patch notes.Patch, lastUpdatedAt int64) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return &notes.Error{
			Code:    notes.ErrCodeInvalid,
			Message: "note title cannot be empty",
			NoteID:  id,
		}
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	var current int64
	err = tx.QueryRowContext(ctx,
		"SELECT updated_at FROM notes WHERE id = ? AND deleted_at IS NULL", id,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return notes.NewNotFound(id)
	}
	if err != nil {
		return mapSQLiteErr(fmt.Errorf("update note %d: %w", id, err))
	}
	if lastUpdatedAt != 0 && current != lastUpdatedAt {
		return notes.NewConflict(id)
	}

	sets := []string{"updated_at = ?"}
	args := []any{s.now().Unix()}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, strings.TrimSpace(*patch.Title))
	}
	if patch.Body != nil {
		sets = append(sets, "body = ?")
		args = append(args, *patch.Body)
	}
	args = append(args, id)

	_, err = tx.ExecContext(ctx,
		"UPDATE notes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return mapSQLiteErr(fmt.Errorf("update note %d: %w", id, err))
	}

	if err := tx.Commit(); err != nil {
		return mapSQLiteErr(fmt.Errorf("update note %d: commit: %w", id, err))
	}
	return nil
}

// SetFlags updates the pinned/archived flags of a live note.
func (s *Store) SetFlags(ctx context.Context, id int64, flags notes.Flags) error {
	sets := []string{"updated_at = ?"}
	args := []any{s.now().Unix()}
	if flags.Pinned != nil {
		sets = append(sets, "pinned = ?")
		args = append(args, boolInt(*flags.Pinned))
	}
	if flags.Archived != nil {
		sets = append(sets, "archived = ?")
		args = append(args, boolInt(*flags.Archived))
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE notes SET "+strings.Join(sets, ", ")+" WHERE id = ? AND deleted_at IS NULL",
		args...)
	if err != nil {
		return mapSQLiteErr(fmt.Errorf("set flags on note %d: %w", id, err))
	}
	return requireAffected(res, id)
}

// SoftDeleteNote moves a live note to the trash. Pinned/archived flags and
// tag associations are preserved so restore returns the note to its prior
// state. Trashing an already-trashed note returns NOT_FOUND.
func (s *Store) SoftDeleteNote(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notes SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		s.now().Unix(), id)
	if err != nil {
		return mapSQLiteErr(fmt.Errorf("trash note %d: %w", id, err))
	}
	return requireAffected(res, id)
}

// RestoreNote returns a trashed note to circulation with its prior
// pinned/archived state intact. Returns NOT_FOUND if the note is not in
// the trash.
func (s *Store) RestoreNote(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notes SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL",
		s.now().Unix(), id)
	if err != nil {
		return mapSQLiteErr(fmt.Errorf("restore note %d: %w", id, err))
	}
	return requireAffected(res, id)
}

// Seed inserts first-run welcome notes if the store is empty.
func (s *Store) Seed(ctx context.Context) error {
	var existing int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&existing)
	if err != nil {
		return mapSQLiteErr(fmt.Errorf("seed: count notes: %w", err))
	}
	if existing > 0 {
		return nil
	}

	seeds := []struct {
		title, body string
	}{
		{"Welcome to inkwell", "This is your new note space. Run `inkwell --help` to see commands.\n"},
		{"Search tips", "Use tag:name, created:2024-01-01..2024-02-01, -term to exclude, --regex for patterns.\n"},
		{"Inbox", "Capture quick thoughts here.\n"},
	}
	for _, seed := range seeds {
		if _, err := s.CreateNote(ctx, seed.title, seed.body, false); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}

// requireAffected turns a zero-row UPDATE into NOT_FOUND.
func requireAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notes.NewNotFound(id)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
