// Package journal implements crash-proof autosave for note edit sessions.
//
// Each open edit session moves through a small state machine:
//
//	Clean -> Dirty (first change) -> Debouncing (timer armed)
//	      -> Snapshotted (debounce elapsed or explicit flush)
//	      -> Clean (store commit confirmed, snapshot superseded)
//
// Snapshots are JSON drafts written to a journal directory with an atomic
// temp-file-and-rename, so a crash between snapshot write and store commit
// always leaves either the previous snapshot or a complete new one, never
// a torn file. At most one live snapshot exists per session; a new flush
// replaces the prior snapshot rather than appending.
//
// On startup, ListRecovery enumerates live snapshots for per-draft restore
// or discard. Restore re-applies the draft through the store and only then
// supersedes the snapshot.
package journal
