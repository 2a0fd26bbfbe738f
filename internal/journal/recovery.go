package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/roach88/inkwell/internal/notes"
	"github.com/roach88/inkwell/internal/store"
)

// Recovered is one live snapshot found on startup.
type Recovered struct {
	Snapshot Snapshot
	Path     string
	// Age is how old the snapshot was when listed.
	Age time.Duration
}

// Preview returns the first non-empty draft lines for display.
func (r Recovered) Preview(maxLines int) string {
	var parts []string
	for _, line := range strings.Split(r.Snapshot.Body, "\n") {
		if len(parts) >= maxLines {
			break
		}
		line = strings.TrimSpace(line)
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " / ")
}

// ListRecovery enumerates live snapshots, newest first. Unreadable or
// torn entries are skipped: recovery must not fail because one draft is
// damaged.
func (j *Journal) ListRecovery() ([]Recovered, error) {
	entries, err := os.ReadDir(j.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &notes.Error{
			Code:    notes.ErrCodeIOFailure,
			Message: "reading journal directory",
			Err:     err,
		}
	}

	now := j.now()
	var out []Recovered
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		snap, err := readSnapshot(path)
		if err != nil {
			continue
		}
		age := now.Sub(time.Unix(snap.SavedAt, 0))
		if age < 0 {
			age = 0
		}
		out = append(out, Recovered{Snapshot: snap, Path: path, Age: age})
	}

	sort.Slice(out, func(i, k int) bool {
		if out[i].Snapshot.SavedAt != out[k].Snapshot.SavedAt {
			return out[i].Snapshot.SavedAt > out[k].Snapshot.SavedAt
		}
		return out[i].Path < out[k].Path
	})
	return out, nil
}

// Restore re-applies a recovered draft through the store and supersedes
// the snapshot only after the content is durably committed. Drafts for a
// note that no longer exists (purged while we were down) become a new
// note rather than failing. Returns the id of the note that received the
// draft.
func (j *Journal) Restore(ctx context.Context, s *store.Store, rec Recovered) (int64, error) {
	snap := rec.Snapshot
	id := snap.NoteID

	if id > 0 {
		patch := notes.Patch{Body: &snap.Body}
		if snap.Title != "" {
			patch.Title = &snap.Title
		}
		err := s.UpdateNote(ctx, id, patch, 0)
		if err != nil && !notes.IsNotFound(err) {
			return 0, fmt.Errorf("restore draft for note %d: %w", id, err)
		}
		if notes.IsNotFound(err) {
			id = 0
		}
	}

	if id == 0 {
		title := snap.Title
		if title == "" {
			title = "Recovered draft"
		}
		newID, err := s.CreateNote(ctx, title, snap.Body, false)
		if err != nil {
			return 0, fmt.Errorf("restore draft as new note: %w", err)
		}
		id = newID
	}

	if err := supersede(rec.Path); err != nil {
		return id, err
	}
	return id, nil
}

// Discard removes a single snapshot without applying it.
func (j *Journal) Discard(rec Recovered) error {
	return removeIfPresent(rec.Path)
}

// DiscardAll removes every live snapshot.
func (j *Journal) DiscardAll() (int, error) {
	recs, err := j.ListRecovery()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, rec := range recs {
		if err := removeIfPresent(rec.Path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Prune deletes superseded snapshots older than the retention window in
// hours, returning how many were removed. Live drafts are never pruned:
// only an explicit restore, discard, or commit retires them. Zero
// disables automatic pruning entirely.
func (j *Journal) Prune(retentionHours int) (int, error) {
	if retentionHours <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(j.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, &notes.Error{
			Code:    notes.ErrCodeIOFailure,
			Message: "reading journal directory",
			Err:     err,
		}
	}

	cutoff := j.now().Add(-time.Duration(retentionHours) * time.Hour).Unix()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), supersededExt) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		// An unreadable superseded file carries nothing recoverable.
		if snap, err := readSnapshot(path); err == nil && snap.SavedAt > cutoff {
			continue
		}
		if err := removeIfPresent(path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func readSnapshot(path string) (Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return snap, nil
}
