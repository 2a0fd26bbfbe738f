package worker

import (
	"context"
	"sync/atomic"

	"github.com/roach88/inkwell/internal/notes"
	"github.com/roach88/inkwell/internal/search"
)

// SearchOutcome is a live-search completion. Stale outcomes belong to a
// query that was superseded by a later keystroke before this one
// completed; callers must not render them.
type SearchOutcome struct {
	Generation uint64
	Stale      bool
	Results    []notes.SearchResult
	Err        error
}

// SearchSession orders live-typing searches for one query box.
//
// Every Submit gets the next generation number. When a search completes,
// its generation is compared against the latest submitted: anything below
// is marked stale. Last-submitted-wins, regardless of completion order,
// so a slow result for "m" can never overwrite the result for "mi".
type SearchSession struct {
	worker *Worker
	gen    atomic.Uint64
}

// NewSearchSession creates a session bound to the worker.
func NewSearchSession(w *Worker) *SearchSession {
	return &SearchSession{worker: w}
}

// Submit enqueues a search for the current query text. The returned
// channel receives exactly one outcome.
func (s *SearchSession) Submit(ctx context.Context, req search.Request) <-chan SearchOutcome {
	gen := s.gen.Add(1)
	out := make(chan SearchOutcome, 1)

	reply := s.worker.Submit(func(ctx context.Context) (any, error) {
		// Skip the actual query when already superseded; the result
		// would be dropped anyway and the worker's time is better spent
		// on the newest generation.
		if s.gen.Load() != gen {
			return nil, nil
		}
		return s.worker.engine.Search(ctx, req)
	})

	go func() {
		var outcome SearchOutcome
		outcome.Generation = gen

		select {
		case <-ctx.Done():
			outcome.Stale = true
			outcome.Err = ctx.Err()
		case resp := <-reply:
			if s.gen.Load() != gen {
				outcome.Stale = true
			} else if resp.Err != nil {
				outcome.Err = resp.Err
			} else if resp.Value != nil {
				outcome.Results = resp.Value.([]notes.SearchResult)
			}
		}
		out <- outcome
	}()

	return out
}

// Latest returns the generation of the most recently submitted query.
func (s *SearchSession) Latest() uint64 {
	return s.gen.Load()
}
