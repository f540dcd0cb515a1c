package api

import (
	"fmt"

	gormio "gorm.io/gorm"

	"comedyuo/showsync/internal/common"
	"comedyuo/showsync/internal/config"
	"comedyuo/showsync/internal/db/repositories"
	"comedyuo/showsync/internal/metrics"
	"comedyuo/showsync/internal/providers"
	"comedyuo/showsync/internal/services"
)

type Repositories struct {
	Shows       *repositories.ShowRepo
	SyncHistory *repositories.ShowSyncHistoryRepo
}

type Services struct {
	Cache common.CacheInterface
	Sync  *services.ShowSyncService
	Shows *services.ShowService
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
	Metrics  *metrics.MetricsRegistry
}

// InitDependencies builds repositories and services around the given
// remote store, cache and mail sender. email may be nil.
func InitDependencies(
	cfg *config.Config,
	gormDB *gormio.DB,
	metricsReg *metrics.MetricsRegistry,
	remote providers.RemoteStore,
	cache common.CacheInterface,
	email providers.EmailSender,
) (*Dependencies, error) {
	policy, err := services.PolicyFromName(cfg.Sync.Policy)
	if err != nil {
		return nil, fmt.Errorf("sync policy: %w", err)
	}
	deletion, err := services.DeletionPolicyFromName(cfg.Sync.DeletionPolicy)
	if err != nil {
		return nil, fmt.Errorf("deletion policy: %w", err)
	}

	repos := &Repositories{
		Shows:       repositories.NewShowRepo(gormDB),
		SyncHistory: repositories.NewShowSyncHistoryRepo(gormDB),
	}

	syncSvc := services.NewShowSyncService(remote, repos.Shows, repos.SyncHistory, deletion, metricsReg)

	showSvc := services.NewShowService(services.ShowServiceDeps{
		Remote:         remote,
		Shows:          repos.Shows,
		History:        repos.SyncHistory,
		Sync:           syncSvc,
		Policy:         policy,
		Cache:          cache,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Email:          email,
		Metrics:        metricsReg,
	})

	return &Dependencies{
		Repo: repos,
		Services: &Services{
			Cache: cache,
			Sync:  syncSvc,
			Shows: showSvc,
		},
		Metrics: metricsReg,
	}, nil
}
