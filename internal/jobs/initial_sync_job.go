package jobs

import (
	"context"
	"time"

	"comedyuo/showsync/internal/constants"
	"comedyuo/showsync/internal/logging"
	"comedyuo/showsync/internal/models/gorm"
	"comedyuo/showsync/internal/services"
)

// Syncer runs one full pull from the remote store
type Syncer interface {
	SyncFromRemote(ctx context.Context) (*services.SyncResult, error)
}

// HistoryReader returns the last recorded run of a sync event
type HistoryReader interface {
	Latest(ctx context.Context, event string) (*gorm.ShowSyncHistory, error)
}

// InitialSyncJob fills an empty mirror once at startup. It does nothing when
// a sync has already been recorded.
type InitialSyncJob struct {
	syncer  Syncer
	history HistoryReader
	done    chan struct{}
}

func NewInitialSyncJob(syncer Syncer, history HistoryReader) *InitialSyncJob {
	return &InitialSyncJob{
		syncer:  syncer,
		history: history,
		done:    make(chan struct{}),
	}
}

// Run performs the warm-up sync. It returns whether a sync was attempted.
// Run must be called at most once.
func (j *InitialSyncJob) Run(ctx context.Context) bool {
	defer close(j.done)
	start := time.Now()

	latest, err := j.history.Latest(ctx, constants.SyncEventShowsAT)
	if err != nil {
		logging.Error("[InitialSyncJob] Failed to read sync history", "error", err)
		return false
	}
	if latest != nil && latest.LastSyncAt != nil {
		logging.Info("[InitialSyncJob] Mirror already synced, skipping", "last_sync_at", latest.LastSyncAt.Format(time.RFC3339))
		return false
	}

	logging.Info("[InitialSyncJob] No sync history, pulling shows from Airtable")
	result, err := j.syncer.SyncFromRemote(ctx)
	if err != nil {
		logging.Warn("[InitialSyncJob] Warm-up sync failed", "error", err)
		return true
	}

	logging.Info("[InitialSyncJob] Completed",
		"synced", result.Synced,
		"failed", result.Failed,
		"duration", time.Since(start).Truncate(time.Millisecond).String(),
	)
	return true
}

// Done is closed when Run returns
func (j *InitialSyncJob) Done() <-chan struct{} {
	return j.done
}
