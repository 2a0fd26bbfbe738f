package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/inkwell/internal/config"
	"github.com/roach88/inkwell/internal/journal"
	"github.com/roach88/inkwell/internal/search"
	"github.com/roach88/inkwell/internal/store"
	"github.com/roach88/inkwell/internal/worker"
)

// env wires the storage stack for one command invocation: config, store,
// search engine, journal, and a running storage worker. Every command
// goes through the worker so CLI access follows the same single-writer
// path as the interactive surface.
type env struct {
	cfg     config.Config
	paths   config.Paths
	store   *store.Store
	engine  *search.Engine
	journal *journal.Journal
	worker  *worker.Worker

	cancel context.CancelFunc
	done   chan struct{}
}

// newEnv loads config, opens the store, and starts the worker loop.
func newEnv(opts *RootOptions) (*env, error) {
	paths, err := config.Resolve()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths)
	if err != nil {
		return nil, err
	}
	if opts.DBPath != "" {
		cfg.Storage.Path = opts.DBPath
	}

	s, err := store.Open(cfg.Storage.Path,
		store.WithWALAutocheckpoint(cfg.Storage.WALAutocheckpoint))
	if err != nil {
		return nil, err
	}
	if err := s.Seed(context.Background()); err != nil {
		s.Close()
		return nil, err
	}

	j, err := journal.New(cfg.Autosave.JournalDir,
		time.Duration(cfg.Autosave.DebounceMS)*time.Millisecond)
	if err != nil {
		s.Close()
		return nil, err
	}

	engine := search.NewEngine(s, cfg.Search.FuzzyThreshold)
	w := worker.New(s, engine, worker.Config{
		RetentionDays: cfg.Storage.RetentionDays,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	// Age out superseded journal snapshots; live drafts stay until the
	// user restores or discards them.
	if cfg.Autosave.SnapshotRetentionHours > 0 {
		if _, err := j.Prune(cfg.Autosave.SnapshotRetentionHours); err != nil {
			slog.Warn("journal prune failed", "error", err)
		}
	}

	return &env{
		cfg:     cfg,
		paths:   paths,
		store:   s,
		engine:  engine,
		journal: j,
		worker:  w,
		cancel:  cancel,
		done:    done,
	}, nil
}

// Close backs up the database when configured, stops the worker, draining
// pending requests, and closes the store.
func (e *env) Close() error {
	if e.cfg.Storage.BackupOnExit {
		_, err := e.worker.Backup(context.Background(), e.cfg.Storage.Path, e.cfg.Storage.BackupDir)
		if err != nil {
			slog.Warn("shutdown backup failed", "error", err)
		}
	}
	e.worker.Stop()
	<-e.done
	e.cancel()
	return e.store.Close()
}

// withEnv runs fn with a wired environment and tears it down afterwards.
func withEnv(opts *RootOptions, fn func(ctx context.Context, e *env) error) error {
	e, err := newEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(context.Background(), e)
}
