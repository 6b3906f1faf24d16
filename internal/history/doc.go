// Package history provides SQLite-backed durable storage for save events.
//
// The store is an append-only log keyed by lineage (see naming.LineageKey):
//   - Events: one row per save-plus, save-as-new, backup or manual action
//   - Notes: the only mutable column, attached after the fact
//
// # Ordering
//
// Every event carries a wall-clock timestamp and a store-assigned seq
// (the SQLite rowid). Within a lineage timestamps never decrease: an append
// whose timestamp is earlier than the lineage's latest is clamped forward to
// latest + 1ns. Queries order by (timestamp, seq) so ties are stable.
//
// # Durability and concurrency
//
//   - WAL mode: readers see a consistent snapshot while a writer commits
//   - synchronous=FULL: an acknowledged append survives a crash
//   - busy_timeout=5000: writers from other processes wait for the lock
//   - BEGIN IMMEDIATE: the clamp read and the insert hold the write lock
//     together, so concurrent appenders never interleave
//
// Database failures surface as *PersistenceError; a failed append rolls back
// and leaves nothing behind.
package history
