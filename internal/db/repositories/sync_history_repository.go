package repositories

import (
	"context"
	"errors"
	"time"

	"comedyuo/showsync/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// SyncCounts is what a sync run reports to the history table
type SyncCounts struct {
	Synced int
	Failed int
	Pruned int
}

// ShowSyncHistoryRepo handles sync history operations
type ShowSyncHistoryRepo struct {
	db *gormlib.DB
}

// NewShowSyncHistoryRepo creates a new sync history repository
func NewShowSyncHistoryRepo(db *gormlib.DB) *ShowSyncHistoryRepo {
	return &ShowSyncHistoryRepo{db: db}
}

// RecordSync stores the outcome of the latest run for an event.
// The row for the event is created on first use and overwritten afterwards.
func (r *ShowSyncHistoryRepo) RecordSync(ctx context.Context, event string, counts SyncCounts, at time.Time) error {
	syncAt := at.UTC()
	syncHistory := gorm.ShowSyncHistory{Event: event}

	return r.db.WithContext(ctx).
		Where("event = ?", event).
		Assign(map[string]interface{}{
			"last_sync_at": &syncAt,
			"synced_count": counts.Synced,
			"failed_count": counts.Failed,
			"pruned_count": counts.Pruned,
		}).
		FirstOrCreate(&syncHistory).Error
}

// Latest returns the history row for an event, or nil when it never ran
func (r *ShowSyncHistoryRepo) Latest(ctx context.Context, event string) (*gorm.ShowSyncHistory, error) {
	var syncHistory gorm.ShowSyncHistory

	err := r.db.WithContext(ctx).
		Where("event = ?", event).
		First(&syncHistory).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &syncHistory, nil
}
