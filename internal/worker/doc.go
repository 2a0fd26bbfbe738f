// Package worker serializes all storage access behind a single logical
// writer, keeping the interactive loop free of storage I/O.
//
// The Worker owns the only store handle. Callers submit requests that are
// processed strictly in submission order by one Run goroutine, so a read
// submitted after a write can never observe staler data than that write.
// Results come back asynchronously on a per-request channel; the typed
// convenience methods wrap submit-and-wait for callers that want a
// synchronous shape.
//
// Live-typing search goes through a SearchSession: each submission gets a
// monotonically increasing generation, and completions below the latest
// submitted generation are marked stale instead of delivered, so the last
// submitted query always wins regardless of completion order.
//
// WAL checkpointing runs on the worker between requests, never inside a
// caller-visible operation.
package worker
