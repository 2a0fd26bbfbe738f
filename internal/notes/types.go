package notes

import (
	"strings"
	"time"
)

// Note is a single note record as stored in the notes table.
//
// Timestamps are unix seconds (UTC). UpdatedAt advances on every mutation
// and doubles as the optimistic concurrency token for Update: callers pass
// back the UpdatedAt they last read, and the store rejects the write with
// ErrCodeConflict if the row has advanced since.
type Note struct {
	ID        int64
	Title     string
	Body      string
	CreatedAt int64
	UpdatedAt int64
	Pinned    bool
	Archived  bool

	// DeletedAt is non-zero when the note is in the trash. Trashed notes
	// are excluded from default list and search views but keep their
	// pinned/archived flags so restore returns them to their prior state.
	DeletedAt int64

	// Tags holds the normalized tag names attached to this note, sorted.
	// Populated by list/search reads; ignored on writes.
	Tags []string
}

// Trashed reports whether the note is currently in the trash.
func (n Note) Trashed() bool {
	return n.DeletedAt != 0
}

// TrashAge returns how long the note has been in the trash at the given
// instant, or zero if it is not trashed.
func (n Note) TrashAge(now time.Time) time.Duration {
	if n.DeletedAt == 0 {
		return 0
	}
	age := now.Unix() - n.DeletedAt
	if age < 0 {
		return 0
	}
	return time.Duration(age) * time.Second
}

// Preview returns the first non-empty body lines joined with " / ",
// capped at maxLines. Used for trash and recovery listings.
func (n Note) Preview(maxLines int) string {
	var parts []string
	for _, line := range strings.Split(n.Body, "\n") {
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

// Tag is a named label. Name is stored case-normalized (NFC, lowercase)
// and unique at the store level.
type Tag struct {
	ID   int64
	Name string

	// NoteCount is the number of live associations, populated by ListTags.
	NoteCount int
}

// Patch describes a partial note update. Nil fields are left unchanged.
type Patch struct {
	Title *string
	Body  *string
}

// Flags describes a pinned/archived update. Nil fields are left unchanged.
type Flags struct {
	Pinned   *bool
	Archived *bool
}

// ListView selects which slice of the store a list query sees.
type ListView int

const (
	// ViewActive is the default view: not trashed, not archived.
	ViewActive ListView = iota
	// ViewArchived shows archived notes that are not trashed.
	ViewArchived
	// ViewTrash shows trashed notes regardless of other flags.
	ViewTrash
)

// SortKey orders list results. Search results are ranked by relevance
// instead and never use a SortKey.
type SortKey int

const (
	SortUpdated SortKey = iota
	SortCreated
	SortTitle
)

// ListOptions controls List queries. Limit <= 0 means no limit.
type ListOptions struct {
	View       ListView
	Sort       SortKey
	Descending bool
	Limit      int
	Offset     int
}

// Span marks a half-open byte range [Start, End) of a highlighted match.
type Span struct {
	Start int
	End   int
}

// SearchResult is one ranked search hit. Score is the relevance rank value
// (lower is better, following bm25); Snippet is an indexed excerpt around
// the match when the text index produced one.
type SearchResult struct {
	Note    Note
	Score   float64
	Snippet string

	// TitleSpans and BodySpans are the highlighted match ranges per field.
	TitleSpans []Span
	BodySpans  []Span
}

// MergeReport describes the outcome of a tag merge. Skipped entries carry
// the offending source name and the reason it was not merged; they never
// fail the merge as a whole.
type MergeReport struct {
	Target   string
	Merged   []string
	Skipped  []SkippedTag
	Relinked int
}

// SkippedTag is a merge source that was ignored rather than merged.
type SkippedTag struct {
	Name   string
	Reason string
}

// Backup records one database backup taken on clean shutdown.
type Backup struct {
	ID        int64
	CreatedAt int64
	Path      string
}
