package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"github.com/roach88/inkwell/internal/notes"
)

// State is the autosave position of one edit session.
type State int

const (
	// StateClean means the buffer matches durable storage.
	StateClean State = iota
	// StateDirty means the buffer changed but no debounce timer is armed.
	// Sessions pass through Dirty into Debouncing on the same update.
	StateDirty
	// StateDebouncing means a flush is pending on debounce expiry.
	StateDebouncing
	// StateSnapshotted means the current buffer is durably journaled but
	// not yet committed to the store.
	StateSnapshotted
)

// Snapshot is the durable draft record written to the journal directory.
type Snapshot struct {
	// NoteID is the source note, or 0 for an unsaved new note.
	NoteID int64 `json:"note_id"`
	// Generation distinguishes snapshot lineages for new drafts and
	// provides (identity, generation) snapshot identity.
	Generation string `json:"generation"`
	SavedAt    int64  `json:"saved_at"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// Journal owns the autosave directory and all active edit sessions.
// Safe for concurrent use: the debounce poller and explicit flushes may
// race, and duplicate flushes of identical content coalesce.
type Journal struct {
	dir      string
	debounce time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Journal.
type Option func(*Journal)

// WithClock overrides the wall clock for tests.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// New creates a Journal writing snapshots under dir.
func New(dir string, debounce time.Duration, opts ...Option) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &notes.Error{
			Code:    notes.ErrCodeIOFailure,
			Message: "creating journal directory",
			Err:     err,
		}
	}
	j := &Journal{
		dir:      dir,
		debounce: debounce,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Dir returns the journal directory.
func (j *Journal) Dir() string {
	return j.dir
}

// Session tracks the autosave state for one open edit buffer.
type Session struct {
	journal *Journal
	key     string

	mu          sync.Mutex
	noteID      int64
	generation  string
	title       string
	body        string
	state       State
	dirtySince  time.Time
	snapshotted string // body content of the live snapshot, for coalescing
}

// StartSession opens an autosave session for an existing note.
func (j *Journal) StartSession(noteID int64, title, body string) *Session {
	return j.start(fmt.Sprintf("note-%d", noteID), noteID, title, body)
}

// StartDraftSession opens an autosave session for a not-yet-saved note.
func (j *Journal) StartDraftSession(title, body string) *Session {
	gen := uuid.NewString()
	s := j.start("new-"+gen, 0, title, body)
	s.generation = gen
	return s
}

func (j *Journal) start(key string, noteID int64, title, body string) *Session {
	j.mu.Lock()
	defer j.mu.Unlock()

	if existing, ok := j.sessions[key]; ok {
		return existing
	}
	s := &Session{
		journal:    j,
		key:        key,
		noteID:     noteID,
		generation: uuid.NewString(),
		title:      title,
		body:       body,
		state:      StateClean,
	}
	j.sessions[key] = s
	return s
}

// EndSession closes a session. If discardSnapshot is set, any live
// snapshot for it is removed (the caller confirmed the content is safe or
// explicitly abandoned it).
func (j *Journal) EndSession(s *Session, discardSnapshot bool) error {
	j.mu.Lock()
	delete(j.sessions, s.key)
	j.mu.Unlock()

	if discardSnapshot {
		return removeIfPresent(s.path())
	}
	return nil
}

// State returns the session's current autosave state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NoteID returns the source note id, or 0 for a new draft.
func (s *Session) NoteID() int64 {
	return s.noteID
}

// Update replaces the session buffer. The first change marks the session
// dirty and arms the debounce timer; identical content is a no-op.
func (s *Session) Update(title, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.title == title && s.body == body {
		return
	}
	s.title = title
	s.body = body
	s.state = StateDebouncing
	s.dirtySince = s.journal.now()
}

// Flush writes a snapshot immediately, bypassing any pending debounce.
// This is the explicit-save path. If the live snapshot already holds the
// current content (a debounce flush raced ahead), Flush is a no-op.
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// MarkCommitted records that the store transaction for the current buffer
// content has committed: the snapshot is superseded, renamed aside until
// Prune ages it out, and the session returns to Clean.
func (s *Session) MarkCommitted() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := supersede(s.path()); err != nil {
		return err
	}
	s.state = StateClean
	s.snapshotted = ""
	return nil
}

// Poll flushes every session whose debounce window has elapsed and
// returns the sessions flushed. Called on a timer by the owner; safe to
// call concurrently with explicit Flush.
func (j *Journal) Poll() ([]*Session, error) {
	j.mu.Lock()
	sessions := make([]*Session, 0, len(j.sessions))
	for _, s := range j.sessions {
		sessions = append(sessions, s)
	}
	j.mu.Unlock()

	now := j.now()
	var flushed []*Session
	for _, s := range sessions {
		s.mu.Lock()
		due := s.state == StateDebouncing && now.Sub(s.dirtySince) >= j.debounce
		var err error
		if due {
			err = s.flushLocked()
		}
		s.mu.Unlock()

		if err != nil {
			return flushed, err
		}
		if due {
			flushed = append(flushed, s)
		}
	}
	return flushed, nil
}

// flushLocked writes the snapshot for the current buffer. Caller holds
// s.mu. A snapshot already covering this exact content suppresses the
// duplicate write, making concurrent debounce/explicit triggers idempotent.
func (s *Session) flushLocked() error {
	if s.state == StateClean && s.snapshotted == "" {
		return nil
	}
	if s.state == StateSnapshotted && s.snapshotted == s.body {
		return nil
	}

	snap := Snapshot{
		NoteID:     s.noteID,
		Generation: s.generation,
		SavedAt:    s.journal.now().Unix(),
		Title:      s.title,
		Body:       s.body,
	}
	if err := writeSnapshot(s.path(), snap); err != nil {
		return err
	}
	s.state = StateSnapshotted
	s.snapshotted = s.body
	return nil
}

func (s *Session) path() string {
	return filepath.Join(s.journal.dir, s.key+".json")
}

// writeSnapshot persists a snapshot with an atomic rename so a crash never
// leaves a half-written file in the journal.
func writeSnapshot(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return &notes.Error{
			Code:    notes.ErrCodeIOFailure,
			Message: "writing autosave snapshot",
			Err:     err,
		}
	}
	return nil
}

func removeIfPresent(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return &notes.Error{
		Code:    notes.ErrCodeIOFailure,
		Message: "removing autosave snapshot",
		Err:     err,
	}
}

// supersededExt marks a snapshot whose content reached the store. The
// file is renamed aside rather than deleted, so a commit is never the
// event that destroys the only copy of a draft; Prune ages it out later.
const supersededExt = ".done"

func supersede(path string) error {
	err := os.Rename(path, path+supersededExt)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return &notes.Error{
		Code:    notes.ErrCodeIOFailure,
		Message: "superseding autosave snapshot",
		Err:     err,
	}
}
