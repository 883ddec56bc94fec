// Package repositories is the SQLite persistence layer for the library.
//
// Each entity kind has its own repository holding a database handle:
//   - [TrackRepository] and [CollectionRepository] implement [models.Repository]
//   - [CollectionTrackRepository] is keyed by the (collection, track) pair
//   - [FeedbackRepository] is append-only
//   - [SyncQueueRepository] is a FIFO ordered by a sequence table (see [NextSequence])
//
// [Store] composes the repositories over one connection, owns its lifecycle
// and runs multi-table writes in a single transaction.
//
// Put is insert-or-replace through an upsert, Delete is idempotent, absence is
// reported as an error wrapping [shared.ErrNotFound] and every engine failure
// wraps [shared.ErrStorage].
package repositories
