package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/rhytm/internal/library"
	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// SyncPath is the remote endpoint that receives queued mutations.
const SyncPath = "/api/sync"

var _ library.Replayer = (*SyncClient)(nil)

// SyncClient replays queued mutations by POSTing each item as JSON to [SyncPath].
type SyncClient struct {
	api *Client
}

// NewSyncClient returns a replayer that posts through api.
func NewSyncClient(api *Client) *SyncClient {
	return &SyncClient{api: api}
}

// Replay sends one item. Transport errors and non-2xx responses wrap [shared.ErrSyncFailed].
func (s *SyncClient) Replay(ctx context.Context, item models.SyncQueueItem) error {
	data, err := shared.MarshalJSON(item, false)
	if err != nil {
		return fmt.Errorf("%w: failed to encode item %s: %v", shared.ErrSyncFailed, item.ID, err)
	}

	resp, err := s.api.Post(ctx, SyncPath, data)
	if err != nil {
		return fmt.Errorf("%w: item %s: %w", shared.ErrSyncFailed, item.ID, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: item %s: status %d: %s", shared.ErrSyncFailed, item.ID, resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}
	return nil
}
