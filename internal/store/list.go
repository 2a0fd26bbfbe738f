package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/inkwell/internal/notes"
)

// tagDelimiter separates tag names inside GROUP_CONCAT aggregates. Chosen
// so it cannot appear in a normalized tag name.
const tagDelimiter = "|:|"

// noteColumns is the shared SELECT list for note reads. Tag names are
// aggregated per note and split in scanNote.
const noteColumns = `
	n.id, n.title, n.body, n.created_at, n.updated_at,
	n.pinned, n.archived, COALESCE(n.deleted_at, 0),
	COALESCE(GROUP_CONCAT(t.name, '` + tagDelimiter + `'), '')`

// ListNotes returns notes for the requested view in a deterministic order.
// Active and archived views sort pinned notes first; the trash view sorts
// by deletion time. Ties always break by id ASC.
func (s *Store) ListNotes(ctx context.Context, opts notes.ListOptions) ([]notes.Note, error) {
	var where string
	switch opts.View {
	case notes.ViewTrash:
		where = "n.deleted_at IS NOT NULL"
	case notes.ViewArchived:
		where = "n.deleted_at IS NULL AND n.archived = 1"
	default:
		where = "n.deleted_at IS NULL AND n.archived = 0"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM notes n
		LEFT JOIN note_tags nt ON nt.note_id = n.id
		LEFT JOIN tags t ON t.id = nt.tag_id
		WHERE %s
		GROUP BY n.id
		ORDER BY %s
	`, noteColumns, where, orderClause(opts))

	args := []any{}
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteErr(fmt.Errorf("list notes: %w", err))
	}
	defer rows.Close()

	var out []notes.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("list notes: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteErr(fmt.Errorf("list notes: %w", err))
	}
	return out, nil
}

// orderClause builds the ORDER BY body for a list view. Every variant ends
// with "n.id ASC" for deterministic results.
func orderClause(opts notes.ListOptions) string {
	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}

	if opts.View == notes.ViewTrash {
		return "n.deleted_at DESC, n.id ASC"
	}

	var key string
	switch opts.Sort {
	case notes.SortCreated:
		key = "n.created_at " + dir
	case notes.SortTitle:
		key = "n.title COLLATE NOCASE " + dir
	default:
		key = "n.updated_at " + dir
	}
	return "n.pinned DESC, " + key + ", n.id ASC"
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(sc rowScanner) (notes.Note, error) {
	var n notes.Note
	var pinned, archived int
	var tags string
	err := sc.Scan(
		&n.ID, &n.Title, &n.Body, &n.CreatedAt, &n.UpdatedAt,
		&pinned, &archived, &n.DeletedAt, &tags,
	)
	if err != nil {
		return notes.Note{}, err
	}
	n.Pinned = pinned != 0
	n.Archived = archived != 0
	n.Tags = parseTagList(tags)
	return n, nil
}

func scanNoteRow(row *sql.Row) (notes.Note, error) {
	return scanNote(row)
}

// parseTagList splits a GROUP_CONCAT aggregate into sorted tag names.
func parseTagList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, tagDelimiter)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
