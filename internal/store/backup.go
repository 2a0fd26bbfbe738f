package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roach88/inkwell/internal/notes"
)

// Backup checkpoints the WAL, copies the database file into dir, and
// records the copy in the backups table. Called on clean shutdown when
// backups are enabled; records are purely additive and never mutated.
func (s *Store) Backup(ctx context.Context, dbPath, dir string) (notes.Backup, error) {
	if err := s.Checkpoint(ctx); err != nil {
		return notes.Backup{}, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return notes.Backup{}, &notes.Error{
			Code:    notes.ErrCodeIOFailure,
			Message: "creating backup directory",
			Err:     err,
		}
	}

	now := s.now()
	dest := filepath.Join(dir, fmt.Sprintf("notes-%s.db", now.UTC().Format("20060102-150405")))
	if err := copyFile(dbPath, dest); err != nil {
		return notes.Backup{}, &notes.Error{
			Code:    notes.ErrCodeIOFailure,
			Message: "writing backup file",
			Err:     err,
		}
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO backups (created_at, path) VALUES (?, ?)", now.Unix(), dest)
	if err != nil {
		return notes.Backup{}, mapSQLiteErr(fmt.Errorf("record backup: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return notes.Backup{}, fmt.Errorf("record backup: last insert id: %w", err)
	}

	return notes.Backup{ID: id, CreatedAt: now.Unix(), Path: dest}, nil
}

// ListBackups returns all recorded backups, newest first.
func (s *Store) ListBackups(ctx context.Context) ([]notes.Backup, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, created_at, path FROM backups ORDER BY created_at DESC, id ASC")
	if err != nil {
		return nil, mapSQLiteErr(fmt.Errorf("list backups: %w", err))
	}
	defer rows.Close()

	var out []notes.Backup
	for rows.Next() {
		var b notes.Backup
		if err := rows.Scan(&b.ID, &b.CreatedAt, &b.Path); err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
