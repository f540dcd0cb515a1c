package jobs

import (
	"context"

	"comedyuo/showsync/internal/db/repositories"
	"comedyuo/showsync/internal/services"
)

// InitializeJobs starts the startup warm-up sync in the background and
// returns the job so callers can wait on it.
func InitializeJobs(
	ctx context.Context,
	syncSvc *services.ShowSyncService,
	historyRepo *repositories.ShowSyncHistoryRepo,
) *InitialSyncJob {
	job := NewInitialSyncJob(syncSvc, historyRepo)
	go job.Run(ctx)
	return job
}
