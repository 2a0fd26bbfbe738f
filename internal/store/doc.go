// Package store provides SQLite-backed durable storage for notes, tags,
// and note-tag associations.
//
// The store implements:
//   - Notes: create/update with optimistic version checks, pinned/archived
//     flags, soft delete (trash) with retention-based purging
//   - Tags: case-normalized unique names, atomic rename/merge/delete with
//     cascading association cleanup
//   - Full-text mirror: an fts5 table (fts_notes) kept in sync by triggers
//     inside the same transaction as every notes mutation, plus an
//     fts5vocab table feeding fuzzy query expansion
//   - Backups: database file copies recorded on clean shutdown
//
// # Critical Patterns
//
// Deterministic query results: every list query carries an explicit ORDER
// BY with an id ASC tiebreaker, so identical store state always produces
// identical output.
//
// Transactional index mirror: the fts_notes table is never written
// directly; triggers keep it consistent, and RebuildIndex() can regenerate
// it wholesale from the notes table.
//
// Optimistic concurrency: UpdateNote takes the updated_at the caller last
// read and fails with CONFLICT if the row advanced, forcing a reload.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - wal_autocheckpoint: configurable frame threshold
package store
