package library

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// SyncResult counts the outcome of one drain.
type SyncResult struct {
	Replayed int `json:"replayed"`
	Failed   int `json:"failed"`
}

// SyncWithServer drains the sync queue one item at a time in FIFO order.
//
// Replayed items are dequeued. An item that fails stays queued and the drain moves on
// to the next one, so delivery is at-least-once. The returned error is non-nil only when
// the queue cannot be read or ctx is cancelled; per-item failures are reported through
// [SyncResult] and [Manager.SyncStatus].
func (m *Manager) SyncWithServer(ctx context.Context) (SyncResult, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	var result SyncResult
	if m.replayer == nil {
		m.logger.Debug("no replayer configured, leaving queue in place")
		return result, nil
	}

	items, err := m.queued()
	if err != nil {
		m.setStatus(models.SyncError, err.Error(), false)
		return result, err
	}
	if len(items) == 0 {
		m.setStatus(models.SyncSuccess, "", true)
		return result, nil
	}

	m.setStatus(models.SyncSyncing, "", false)
	m.logger.Info("sync started", "items", len(items))

	for _, item := range items {
		if err := m.limiter.Wait(ctx); err != nil {
			m.setStatus(models.SyncError, err.Error(), false)
			return result, err
		}

		if err := m.replayer.Replay(ctx, item); err != nil {
			result.Failed++
			m.logger.Warn("replay failed, item stays queued", "id", item.ID, "type", item.Type, "action", item.Action, "error", err)
			continue
		}

		if err := m.dequeue(item.ID); err != nil {
			m.logger.Warn("replayed item could not be dequeued", "id", item.ID, "error", err)
		}
		result.Replayed++
	}

	if result.Failed > 0 {
		msg := fmt.Errorf("%w: %d of %d item(s) failed", shared.ErrSyncFailed, result.Failed, len(items)).Error()
		m.setStatus(models.SyncError, msg, false)
	} else {
		m.setStatus(models.SyncSuccess, "", true)
	}

	m.logger.Info("sync finished", "replayed", result.Replayed, "failed", result.Failed)
	return result, nil
}

// SetOnline records a connectivity change. Going from Offline to Online drains the queue.
func (m *Manager) SetOnline(ctx context.Context, online bool) error {
	was := m.online.Swap(online)
	if was == online {
		return nil
	}

	m.logger.Info("connectivity changed", "online", online)
	if !online {
		return nil
	}

	_, err := m.SyncWithServer(ctx)
	return err
}

// WatchConnectivity applies connectivity signals until ctx is done or signals is closed.
func (m *Manager) WatchConnectivity(ctx context.Context, signals <-chan bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case online, ok := <-signals:
			if !ok {
				return nil
			}
			if err := m.SetOnline(ctx, online); err != nil {
				m.logger.Warn("sync after reconnect failed", "error", err)
			}
		}
	}
}

func (m *Manager) queued() ([]models.SyncQueueItem, error) {
	if m.store == nil {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return slices.Clone(m.pending), nil
	}

	items, err := m.store.ListSyncQueue()
	if err != nil {
		return nil, err
	}

	out := make([]models.SyncQueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (m *Manager) dequeue(id string) error {
	if m.store == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.pending = slices.DeleteFunc(m.pending, func(item models.SyncQueueItem) bool { return item.ID == id })
		return nil
	}
	return m.store.DequeueSync(id)
}

func (m *Manager) setStatus(state models.SyncState, msg string, synced bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.State = state
	m.status.Error = msg
	if synced {
		at := m.now()
		m.status.LastSyncAt = &at
	}
}
