// Package library is the in-memory source of truth for one user's tracks,
// collections and collection membership.
//
// Every mutation on [Manager] is optimistic: it is applied to memory first,
// then persisted through [Store]; a persistence failure applies the inverse
// recorded alongside it and the error is returned. Mutations are serialized,
// reads never block on persistence.
//
// While offline each mutation also records a [models.SyncQueueItem]. Going back
// online drains the queue in FIFO order through a [Replayer], see [Manager.SyncWithServer].
package library
