// Package store provides SQLite-backed durable storage for clipkeep's
// polymorphic item model.
//
// One items table holds three roles, discriminated by ownership columns and
// surfaced in Go as the sealed model.Placement union:
//   - Standalone snippets: neither owner set
//   - List steps: (list_id, position), positions contiguous 1..N per list
//   - Table cells: (table_id, row_idx, col_idx), coordinate unique per table
//
// # Invariants
//
//   - Contiguity: after any sequence of step inserts, moves and deletes,
//     a list's positions are exactly {1..N}. Moves shift only the band
//     between the old and new position, never re-sort the whole list.
//   - Coordinate uniqueness: no two live cells share (row, col) within a
//     table; enforced by a UNIQUE constraint and pre-flight checks.
//   - Tag counters: tags.used_count always equals the number of live
//     item_tags rows referencing the tag. Counters move by deltas inside
//     the same transaction as the association change; RecountTag is the
//     only rescan path and exists for repair.
//   - Row-label cache: a table cell's row_label mirrors the content of its
//     row's column-0 cell. Every key-column write fans the new value out to
//     the whole row inside the writing transaction.
//
// Every mutating operation runs in one all-or-nothing transaction; a
// failure at any step rolls back every staged write, including position
// shifts and counter moves.
//
// Sensitive content passes through internal/vault on write and read. A
// payload that no longer decrypts degrades to a sentinel on read paths and
// fails loudly on write paths that need the plaintext.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce ownership cascades
package store
