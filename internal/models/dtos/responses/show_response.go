package responses

import "time"

// SyncStatusResponse is the body of GET /shows/sync/status
type SyncStatusResponse struct {
	Event       string     `json:"event"`
	LastSyncAt  *time.Time `json:"last_sync_at"`
	SyncedCount int        `json:"synced_count"`
	FailedCount int        `json:"failed_count"`
	PrunedCount int        `json:"pruned_count"`
	LocalCount  int64      `json:"local_count"`
}
