// Package models defines the entities of the local music library and the repository contract used to persist them.
//
// Library entities:
//   - [Track] : a catalog item with tempo, Camelot key and optional audio features
//   - [Collection] : a named, user-curated ordered set of tracks
//   - [CollectionTrack] : the membership row linking a track to a collection with a display position
//
// Append-only and bookkeeping records:
//   - [FeedbackEvent] : listening telemetry (like, skip, play, ...)
//   - [SyncQueueItem] : a mutation recorded while offline, waiting to be replayed against a remote system
//   - [SyncStatus] : the outcome of the most recent replay attempt
//
// Entities keyed by a single string implement [Entity]; [Repository] is the CRUD contract for them.
package models
