package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/inkwell/internal/notes"
)

// maxTagNameLen bounds stored tag names.
const maxTagNameLen = 64

var tagFolder = cases.Fold()

// NormalizeTagName canonicalizes a tag name: NFC normalization, case
// folding, and whitespace trimming. Uniqueness in the tags table is
// enforced on the normalized form, so "Home" and "home" (and decomposed
// vs precomposed accents) are the same tag. Names longer than
// maxTagNameLen runes are rejected; truncating would silently collide
// distinct names.
func NormalizeTagName(name string) (string, error) {
	name = strings.TrimSpace(tagFolder.String(norm.NFC.String(name)))
	if utf8.RuneCountInString(name) > maxTagNameLen {
		return "", &notes.Error{
			Code:    notes.ErrCodeInvalid,
			Message: fmt.Sprintf("tag name exceeds %d characters", maxTagNameLen),
		}
	}
	return name, nil
}

// AddTag attaches a tag to a live note, creating the tag if it does not
// exist. Adding an association that already exists is a no-op.
func (s *Store) AddTag(ctx context.Context, noteID int64, name string) error {
	name, err := NormalizeTagName(name)
	if err != nil {
		return err
	}
	if name == "" {
		return &notes.Error{
			Code:    notes.ErrCodeInvalid,
			Message: "tag name cannot be empty",
			NoteID:  noteID,
		}
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	if err := noteExists(ctx, tx, noteID); err != nil {
		return err
	}

	tagID, err := ensureTag(ctx, tx, name)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO note_tags (note_id, tag_id) VALUES (?, ?)",
		noteID, tagID)
	if err != nil {
		return mapSQLiteErr(fmt.Errorf("link tag %q to note %d: %w", name, noteID, err))
	}

	if err := tx.Commit(); err != nil {
		return mapSQLiteErr(fmt.Errorf("add tag: commit: %w", err))
	}
	return nil
}

// RemoveTag detaches a tag from a note. Returns NOT_FOUND if the
// association does not exist.
func (s *Store) RemoveTag(ctx context.Context, noteID int64, name string) error {
	name, err := NormalizeTagName(name)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM note_tags
		WHERE note_id = ? AND tag_id = (SELECT id FROM tags WHERE name = ?)
	`, noteID, name)
	if err != nil {
		return mapSQLiteErr(fmt.Errorf("remove tag %q from note %d: %w", name, noteID, err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove tag: rows affected: %w", err)
	}
	if affected == 0 {
		return &notes.Error{
			Code:    notes.ErrCodeNotFound,
			Message: "tag not associated with note",
			NoteID:  noteID,
			TagName: name,
		}
	}
	return nil
}

// TagsForNote returns the tag names attached to a note, sorted.
func (s *Store) TagsForNote(ctx context.Context, noteID int64) ([]string, error) {
	if err := noteExists(ctx, s.db, noteID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name
		FROM tags t
		JOIN note_tags nt ON nt.tag_id = t.id
		WHERE nt.note_id = ?
		ORDER BY t.name, t.id ASC
	`, noteID)
	if err != nil {
		return nil, mapSQLiteErr(fmt.Errorf("tags for note %d: %w", noteID, err))
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("tags for note %d: %w", noteID, err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// ListTags returns every tag with its live association count, sorted by
// name.
func (s *Store) ListTags(ctx context.Context) ([]notes.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, COUNT(nt.note_id)
		FROM tags t
		LEFT JOIN note_tags nt ON nt.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.name, t.id ASC
	`)
	if err != nil {
		return nil, mapSQLiteErr(fmt.Errorf("list tags: %w", err))
	}
	defer rows.Close()

	var out []notes.Tag
	for rows.Next() {
		var t notes.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.NoteCount); err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RenameTag changes a tag's name. Renaming onto a name held by a different
// tag is rejected with NAME_CONFLICT; consolidating duplicates is an
// explicit MergeTags.
func (s *Store) RenameTag(ctx context.Context, from, to string) error {
	from, err := NormalizeTagName(from)
	if err != nil {
		return err
	}
	to, err = NormalizeTagName(to)
	if err != nil {
		return err
	}
	if to == "" {
		return &notes.Error{
			Code:    notes.ErrCodeInvalid,
			Message: "tag name cannot be empty",
		}
	}
	if from == to {
		return nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	id, err := tagID(ctx, tx, from)
	if err != nil {
		return err
	}

	var existing int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM tags WHERE name = ?", to).Scan(&existing)
	switch {
	case err == nil:
		return notes.NewNameConflict(to)
	case !errors.Is(err, sql.ErrNoRows):
		return mapSQLiteErr(fmt.Errorf("rename tag: %w", err))
	}

	if _, err := tx.ExecContext(ctx, "UPDATE tags SET name = ? WHERE id = ?", to, id); err != nil {
		return mapSQLiteErr(fmt.Errorf("rename tag %q: %w", from, err))
	}

	if err := tx.Commit(); err != nil {
		return mapSQLiteErr(fmt.Errorf("rename tag: commit: %w", err))
	}
	return nil
}

// MergeTags re-points every association held by the source tags onto the
// target tag (created if absent), deletes the sources, and reports names
// that were skipped instead of merged. Empty, duplicate, unknown, and
// self-referential sources are skipped with a reason rather than failing
// the operation; a storage fault rolls the whole merge back.
//
// Merging the same source set twice is idempotent: the second call skips
// every source as unknown and leaves associations unchanged.
func (s *Store) MergeTags(ctx context.Context, target string, sources []string) (notes.MergeReport, error) {
	target, err := NormalizeTagName(target)
	if err != nil {
		return notes.MergeReport{}, err
	}
	if target == "" {
		return notes.MergeReport{}, &notes.Error{
			Code:    notes.ErrCodeInvalid,
			Message: "merge target cannot be empty",
		}
	}
	report := notes.MergeReport{Target: target}

	tx, err := s.begin(ctx)
	if err != nil {
		return report, err
	}
	defer tx.Rollback() // No-op if committed

	targetID, err := ensureTag(ctx, tx, target)
	if err != nil {
		return report, err
	}

	seen := map[string]bool{}
	for _, raw := range sources {
		name, nerr := NormalizeTagName(raw)
		switch {
		case nerr != nil:
			report.Skipped = append(report.Skipped, notes.SkippedTag{Name: raw, Reason: "invalid"})
			continue
		case name == "":
			report.Skipped = append(report.Skipped, notes.SkippedTag{Name: raw, Reason: "empty"})
			continue
		case name == target:
			report.Skipped = append(report.Skipped, notes.SkippedTag{Name: name, Reason: "same as target"})
			continue
		case seen[name]:
			report.Skipped = append(report.Skipped, notes.SkippedTag{Name: name, Reason: "duplicate"})
			continue
		}
		seen[name] = true

		srcID, err := tagID(ctx, tx, name)
		if notes.IsNotFound(err) {
			report.Skipped = append(report.Skipped, notes.SkippedTag{Name: name, Reason: "unknown"})
			continue
		}
		if err != nil {
			return notes.MergeReport{Target: target}, err
		}

		// Re-point associations, deduplicating where the note already
		// holds the target, then drop the leftovers with the source tag.
		res, err := tx.ExecContext(ctx, `
			UPDATE OR IGNORE note_tags SET tag_id = ? WHERE tag_id = ?
		`, targetID, srcID)
		if err != nil {
			return notes.MergeReport{Target: target}, mapSQLiteErr(fmt.Errorf("merge tag %q: %w", name, err))
		}
		moved, err := res.RowsAffected()
		if err != nil {
			return notes.MergeReport{Target: target}, fmt.Errorf("merge tag: rows affected: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", srcID); err != nil {
			return notes.MergeReport{Target: target}, mapSQLiteErr(fmt.Errorf("merge tag %q: delete source: %w", name, err))
		}

		report.Merged = append(report.Merged, name)
		report.Relinked += int(moved)
	}

	if err := tx.Commit(); err != nil {
		return notes.MergeReport{Target: target}, mapSQLiteErr(fmt.Errorf("merge tags: commit: %w", err))
	}
	return report, nil
}

// DeleteTag removes a tag entirely, returning how many notes it was
// detached from. Associations go with it via ON DELETE CASCADE.
func (s *Store) DeleteTag(ctx context.Context, name string) (int64, error) {
	name, err := NormalizeTagName(name)
	if err != nil {
		return 0, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // No-op if committed

	id, err := tagID(ctx, tx, name)
	if err != nil {
		return 0, err
	}

	var detached int64
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM note_tags WHERE tag_id = ?", id).Scan(&detached)
	if err != nil {
		return 0, mapSQLiteErr(fmt.Errorf("delete tag %q: %w", name, err))
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id); err != nil {
		return 0, mapSQLiteErr(fmt.Errorf("delete tag %q: %w", name, err))
	}

	if err := tx.Commit(); err != nil {
		return 0, mapSQLiteErr(fmt.Errorf("delete tag: commit: %w", err))
	}
	return detached, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// noteExists verifies a live (non-trashed) note id.
func noteExists(ctx context.Context, q querier, noteID int64) error {
	var one int
	err := q.QueryRowContext(ctx,
		"SELECT 1 FROM notes WHERE id = ? AND deleted_at IS NULL", noteID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return notes.NewNotFound(noteID)
	}
	if err != nil {
		return mapSQLiteErr(fmt.Errorf("check note %d: %w", noteID, err))
	}
	return nil
}

// tagID resolves a normalized tag name inside a transaction.
func tagID(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM tags WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notes.NewTagNotFound(name)
	}
	if err != nil {
		return 0, mapSQLiteErr(fmt.Errorf("resolve tag %q: %w", name, err))
	}
	return id, nil
}

// ensureTag resolves a normalized tag name, creating the tag if absent.
func ensureTag(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	id, err := tagID(ctx, tx, name)
	if err == nil {
		return id, nil
	}
	if !notes.IsNotFound(err) {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		return 0, mapSQLiteErr(fmt.Errorf("create tag %q: %w", name, err))
	}
	return res.LastInsertId()
}
