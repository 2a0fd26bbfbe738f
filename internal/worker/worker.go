package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/inkwell/internal/journal"
	"github.com/roach88/inkwell/internal/notes"
	"github.com/roach88/inkwell/internal/search"
	"github.com/roach88/inkwell/internal/store"
)

// defaultCheckpointInterval is how often the worker runs a WAL checkpoint
// when idle between requests.
const defaultCheckpointInterval = 5 * time.Minute

// Response carries the outcome of one request.
type Response struct {
	Value any
	Err   error
}

// request pairs an operation with its reply channel. The id is a
// correlation token for logging only.
type request struct {
	id    string
	op    func(ctx context.Context) (any, error)
	reply chan Response
}

// Worker is the storage access coordinator: the single goroutine that owns
// the store handle and executes all storage operations in submission order.
//
// Thread-safety model:
//   - Submit / typed methods: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Worker struct {
	store  *store.Store
	engine *search.Engine
	queue  *requestQueue
	log    *slog.Logger

	retentionDays      int
	checkpointInterval time.Duration
}

// Config holds worker construction options.
type Config struct {
	// RetentionDays is the trash purge window; zero disables automatic
	// purging.
	RetentionDays int
	// CheckpointInterval overrides the idle WAL checkpoint cadence.
	CheckpointInterval time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New creates a Worker over an opened store.
func New(s *store.Store, engine *search.Engine, cfg Config) *Worker {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	interval := cfg.CheckpointInterval
	if interval <= 0 {
		interval = defaultCheckpointInterval
	}
	return &Worker{
		store:              s,
		engine:             engine,
		queue:              newRequestQueue(),
		log:                log,
		retentionDays:      cfg.RetentionDays,
		checkpointInterval: interval,
	}
}

// Submit enqueues an operation and returns the channel its Response will
// arrive on. The channel is buffered; the worker never blocks delivering.
// Returns a closed-queue error response immediately if the worker has
// stopped.
func (w *Worker) Submit(op func(ctx context.Context) (any, error)) <-chan Response {
	r := &request{
		id:    uuid.NewString(),
		op:    op,
		reply: make(chan Response, 1),
	}
	if !w.queue.Enqueue(r) {
		r.reply <- Response{Err: fmt.Errorf("storage worker is stopped")}
	}
	return r.reply
}

// Run processes requests until ctx is cancelled or Stop is called.
// Requests are executed strictly in submission order; between requests the
// worker periodically checkpoints the WAL. Automatic trash purging runs
// once at startup and then on the checkpoint cadence.
func (w *Worker) Run(ctx context.Context) error {
	w.purgeExpired(ctx)

	ticker := time.NewTicker(w.checkpointInterval)
	defer ticker.Stop()

	for {
		// Drain everything available before waiting.
		for {
			r, ok := w.queue.TryDequeue()
			if !ok {
				break
			}
			w.process(ctx, r)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		if w.closedAndEmpty() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.maintain(ctx)
		case <-w.queue.Wait():
			// Loop back and drain.
		}
	}
}

// Stop closes the queue. Run drains pending requests and returns.
func (w *Worker) Stop() {
	w.queue.Close()
}

func (w *Worker) closedAndEmpty() bool {
	w.queue.mu.Lock()
	defer w.queue.mu.Unlock()
	return w.queue.closed && len(w.queue.requests) == 0
}

func (w *Worker) process(ctx context.Context, r *request) {
	value, err := r.op(ctx)
	if err != nil {
		if notes.IsStorageContended(err) {
			w.log.Warn("storage contended, operation postponed", "request", r.id)
		} else {
			w.log.Debug("request failed", "request", r.id, "error", err)
		}
	}
	r.reply <- Response{Value: value, Err: err}
}

// maintain runs between-request housekeeping: WAL checkpoint and retention
// purge. Failures are logged, never fatal; contention just means another
// process holds the file right now.
func (w *Worker) maintain(ctx context.Context) {
	if err := w.store.Checkpoint(ctx); err != nil && !notes.IsStorageContended(err) {
		w.log.Warn("wal checkpoint failed", "error", err)
	}
	w.purgeExpired(ctx)
}

func (w *Worker) purgeExpired(ctx context.Context) {
	if w.retentionDays <= 0 {
		return
	}
	removed, err := w.store.PurgeExpired(ctx, time.Now(), w.retentionDays)
	if err != nil {
		w.log.Warn("trash purge failed", "error", err)
		return
	}
	if removed > 0 {
		w.log.Info("purged expired trash", "notes", removed)
	}
}

// wait resolves a submitted request against the caller's context.
func wait[T any](ctx context.Context, ch <-chan Response) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case resp := <-ch:
		if resp.Err != nil {
			return zero, resp.Err
		}
		if resp.Value == nil {
			return zero, nil
		}
		v, ok := resp.Value.(T)
		if !ok {
			return zero, fmt.Errorf("unexpected response type %T", resp.Value)
		}
		return v, nil
	}
}

// CreateNote creates a note through the worker.
func (w *Worker) CreateNote(ctx context.Context, title, body string, pinned bool) (int64, error) {
	return wait[int64](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return w.store.CreateNote(ctx, title, body, pinned)
	}))
}

// GetNote fetches a note through the worker.
func (w *Worker) GetNote(ctx context.Context, id int64) (notes.Note, error) {
	return wait[notes.Note](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return w.store.GetNote(ctx, id)
	}))
}

// UpdateNote applies a patch through the worker, with the optimistic
// version check described on store.UpdateNote.
func (w *Worker) UpdateNote(ctx context.Context, id int64, patch notes.Patch, lastUpdatedAt int64) error {
	_, err := wait[any](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return nil, w.store.UpdateNote(ctx, id, patch, lastUpdatedAt)
	}))
	return err
}

// SetFlags updates pinned/archived through the worker.
func (w *Worker) SetFlags(ctx context.Context, id int64, flags notes.Flags) error {
	_, err := wait[any](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return nil, w.store.SetFlags(ctx, id, flags)
	}))
	return err
}

// TrashNote soft-deletes through the worker.
func (w *Worker) TrashNote(ctx context.Context, id int64) error {
	_, err := wait[any](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return nil, w.store.SoftDeleteNote(ctx, id)
	}))
	return err
}

// RestoreNote restores from trash through the worker.
func (w *Worker) RestoreNote(ctx context.Context, id int64) error {
	_, err := wait[any](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return nil, w.store.RestoreNote(ctx, id)
	}))
	return err
}

// PurgeAllTrashed empties the trash through the worker.
func (w *Worker) PurgeAllTrashed(ctx context.Context) (int64, error) {
	return wait[int64](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return w.store.PurgeAllTrashed(ctx)
	}))
}

// ListNotes lists through the worker.
func (w *Worker) ListNotes(ctx context.Context, opts notes.ListOptions) ([]notes.Note, error) {
	return wait[[]notes.Note](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return w.store.ListNotes(ctx, opts)
	}))
}

// Search runs a one-shot search through the worker. Live-typing callers
// should use a SearchSession instead.
func (w *Worker) Search(ctx context.Context, req search.Request) ([]notes.SearchResult, error) {
	return wait[[]notes.SearchResult](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return w.engine.Search(ctx, req)
	}))
}

// AddTag attaches a tag through the worker.
func (w *Worker) AddTag(ctx context.Context, noteID int64, name string) error {
	_, err := wait[any](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return nil, w.store.AddTag(ctx, noteID, name)
	}))
	return err
}

// RemoveTag detaches a tag through the worker.
func (w *Worker) RemoveTag(ctx context.Context, noteID int64, name string) error {
	_, err := wait[any](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return nil, w.store.RemoveTag(ctx, noteID, name)
	}))
	return err
}

// TagsForNote lists a note's tags through the worker.
func (w *Worker) TagsForNote(ctx context.Context, noteID int64) ([]string, error) {
	return wait[[]string](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return w.store.TagsForNote(ctx, noteID)
	}))
}

// ListTags lists all tags through the worker.
func (w *Worker) ListTags(ctx context.Context) ([]notes.Tag, error) {
	return wait[[]notes.Tag](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return w.store.ListTags(ctx)
	}))
}

// RenameTag renames through the worker.
func (w *Worker) RenameTag(ctx context.Context, from, to string) error {
	_, err := wait[any](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return nil, w.store.RenameTag(ctx, from, to)
	}))
	return err
}

// MergeTags merges through the worker.
func (w *Worker) MergeTags(ctx context.Context, target string, sources []string) (notes.MergeReport, error) {
	return wait[notes.MergeReport](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return w.store.MergeTags(ctx, target, sources)
	}))
}

// DeleteTag deletes through the worker.
func (w *Worker) DeleteTag(ctx context.Context, name string) (int64, error) {
	return wait[int64](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return w.store.DeleteTag(ctx, name)
	}))
}

// RestoreDraft re-applies a journal draft through the worker, so replay
// never races a concurrent write or checkpoint.
func (w *Worker) RestoreDraft(ctx context.Context, j *journal.Journal, rec journal.Recovered) (int64, error) {
	return wait[int64](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return j.Restore(ctx, w.store, rec)
	}))
}

// Backup snapshots the database through the worker. Serializing the copy
// behind pending writes keeps the backup file consistent with what the
// caller last observed.
func (w *Worker) Backup(ctx context.Context, dbPath, dir string) (notes.Backup, error) {
	return wait[notes.Backup](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return w.store.Backup(ctx, dbPath, dir)
	}))
}

// ListBackups lists recorded backups through the worker.
func (w *Worker) ListBackups(ctx context.Context) ([]notes.Backup, error) {
	return wait[[]notes.Backup](ctx, w.Submit(func(ctx context.Context) (any, error) {
		return w.store.ListBackups(ctx)
	}))
}
