package worker

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/inkwell/internal/journal"
	"github.com/roach88/inkwell/internal/notes"
	"github.com/roach88/inkwell/internal/search"
	"github.com/roach88/inkwell/internal/store"
)

// workerFixture is a worker over a real store, not yet running.
type workerFixture struct {
	store  *store.Store
	worker *Worker

	runOnce sync.Once
	done    chan struct{}
	cancel  context.CancelFunc
}

func newWorkerFixture(t *testing.T, cfg Config) *workerFixture {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	engine := search.NewEngine(s, 0.4)
	f := &workerFixture{
		store:  s,
		worker: New(s, engine, cfg),
		done:   make(chan struct{}),
	}
	return f
}

// run starts the worker loop and arranges a drained shutdown in cleanup.
func (f *workerFixture) run(t *testing.T) {
	t.Helper()

	f.runOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		f.cancel = cancel
		go func() {
			defer close(f.done)
			f.worker.Run(ctx)
		}()
		t.Cleanup(func() {
			f.worker.Stop()
			select {
			case <-f.done:
			case <-time.After(5 * time.Second):
				t.Error("worker did not stop")
			}
			cancel()
		})
	})
}

func TestWorker_TypedRoundTrip(t *testing.T) {
	f := newWorkerFixture(t, Config{})
	f.run(t)
	ctx := context.Background()
	w := f.worker

	id, err := w.CreateNote(ctx, "Groceries", "milk\neggs\n", false)
	require.NoError(t, err)

	require.NoError(t, w.AddTag(ctx, id, "home"))

	n, err := w.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", n.Title)
	assert.Equal(t, []string{"home"}, n.Tags)

	results, err := w.Search(ctx, search.Request{Raw: "milk tag:home"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].Note.ID)

	require.NoError(t, w.TrashNote(ctx, id))
	trash, err := w.ListNotes(ctx, notes.ListOptions{View: notes.ViewTrash})
	require.NoError(t, err)
	require.Len(t, trash, 1)

	require.NoError(t, w.RestoreNote(ctx, id))
	live, err := w.ListNotes(ctx, notes.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, live, 1)
}

func TestWorker_ExecutesInSubmissionOrder(t *testing.T) {
	f := newWorkerFixture(t, Config{})
	w := f.worker

	// Queue ops before the loop starts so ordering is purely queue-driven
	var mu sync.Mutex
	var order []int
	var replies []<-chan Response
	for i := 0; i < 10; i++ {
		i := i
		replies = append(replies, w.Submit(func(ctx context.Context) (any, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil, nil
		}))
	}

	f.run(t)
	for _, ch := range replies {
		<-ch
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestWorker_ErrorsPropagate(t *testing.T) {
	f := newWorkerFixture(t, Config{})
	f.run(t)
	ctx := context.Background()

	_, err := f.worker.GetNote(ctx, 9999)
	assert.True(t, notes.IsNotFound(err), "store errors pass through the worker, got %v", err)

	body := "v2"
	id, err := f.worker.CreateNote(ctx, "Note", "v1", false)
	require.NoError(t, err)
	n, err := f.worker.GetNote(ctx, id)
	require.NoError(t, err)

	require.NoError(t, f.worker.UpdateNote(ctx, id, notes.Patch{Body: &body}, n.UpdatedAt))
	err = f.worker.UpdateNote(ctx, id, notes.Patch{Body: &body}, n.UpdatedAt-1)
	assert.True(t, notes.IsConflict(err), "got %v", err)
}

func TestWorker_StopDrainsPending(t *testing.T) {
	f := newWorkerFixture(t, Config{})
	w := f.worker

	var processed int
	var mu sync.Mutex
	var replies []<-chan Response
	for i := 0; i < 5; i++ {
		replies = append(replies, w.Submit(func(ctx context.Context) (any, error) {
			mu.Lock()
			processed++
			mu.Unlock()
			return nil, nil
		}))
	}

	// Stop before the loop starts: Run must still drain, then exit
	w.Stop()
	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	for _, ch := range replies {
		resp := <-ch
		assert.NoError(t, resp.Err)
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, processed)
}

func TestWorker_SubmitAfterStop(t *testing.T) {
	f := newWorkerFixture(t, Config{})
	f.worker.Stop()

	resp := <-f.worker.Submit(func(ctx context.Context) (any, error) {
		return nil, nil
	})
	assert.Error(t, resp.Err)
}

func TestWorker_MergeTagsRoundTrip(t *testing.T) {
	f := newWorkerFixture(t, Config{})
	f.run(t)
	ctx := context.Background()
	w := f.worker

	id, err := w.CreateNote(ctx, "Note", "", false)
	require.NoError(t, err)
	require.NoError(t, w.AddTag(ctx, id, "grocery"))

	report, err := w.MergeTags(ctx, "groceries", []string{"grocery"})
	require.NoError(t, err)
	assert.Equal(t, []string{"grocery"}, report.Merged)
	assert.Equal(t, 1, report.Relinked)

	tags, err := w.TagsForNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"groceries"}, tags)
}

func TestWorker_BackupRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "notes.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	w := New(s, search.NewEngine(s, 0), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	t.Cleanup(func() {
		w.Stop()
		<-done
		cancel()
	})

	b, err := w.Backup(context.Background(), dbPath, filepath.Join(dir, "backups"))
	require.NoError(t, err)
	assert.FileExists(t, b.Path)

	list, err := w.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.Path, list[0].Path)
}

func TestWorker_RestoreDraftRoundTrip(t *testing.T) {
	f := newWorkerFixture(t, Config{})
	f.run(t)
	ctx := context.Background()

	id, err := f.worker.CreateNote(ctx, "Meeting notes", "original", false)
	require.NoError(t, err)

	j, err := journal.New(t.TempDir(), time.Hour)
	require.NoError(t, err)
	sess := j.StartSession(id, "Meeting notes", "original")
	sess.Update("Meeting notes", "crashed mid-edit")
	require.NoError(t, sess.Flush())

	recs, err := j.ListRecovery()
	require.NoError(t, err)
	require.Len(t, recs, 1)

	restored, err := f.worker.RestoreDraft(ctx, j, recs[0])
	require.NoError(t, err)
	assert.Equal(t, id, restored)

	n, err := f.worker.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "crashed mid-edit", n.Body)
}

func TestWorker_RetentionPurgeOnStartup(t *testing.T) {
	// The store clock sits six months in the past, so the trashed note is
	// long expired by the wall-clock time the worker purges with.
	past := time.Now().AddDate(0, -6, 0)
	s, err := store.Open(filepath.Join(t.TempDir(), "notes.db"),
		store.WithClock(func() time.Time { return past }))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	id, err := s.CreateNote(ctx, "Doomed", "", false)
	require.NoError(t, err)
	require.NoError(t, s.SoftDeleteNote(ctx, id))

	w := New(s, search.NewEngine(s, 0), Config{RetentionDays: 30})
	w.Stop() // queue empty; Run purges at startup, drains nothing, exits
	require.NoError(t, w.Run(ctx))

	_, err = s.GetNote(ctx, id)
	assert.True(t, notes.IsNotFound(err), "expired trash should purge at startup, got %v", err)
}
