// Package services talks to the remote side of a rhytm library over HTTP.
//
// # Client
//
// [Client] is a thin JSON-over-HTTP wrapper. It never interprets status codes;
// callers inspect [APIResponse] themselves.
//
// # Sync
//
// [SyncClient] implements [library.Replayer]. Each queued mutation is POSTed as
// JSON to <remote>/api/sync and any non-2xx reply counts as a replay failure
// wrapping [shared.ErrSyncFailed]. The item stays queued and is retried on the
// next drain.
//
// # Connectivity
//
// [Prober] polls a health endpoint and emits on a channel whenever the
// remote flips between reachable and unreachable. Feed it to
// [library.Manager.WatchConnectivity] to drain the queue on reconnect.
package services
