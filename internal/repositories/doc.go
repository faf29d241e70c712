// Package repositories implements SQLite persistence for the download history.
//
// Repositories handle CRUD operations with atomic sequence generation for human-readable ordering.
// They support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [DownloadRepository] : one row per acquisition attempt, with status filtering
//   - [HistoryAdapter] : records batch outcomes as they complete
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
