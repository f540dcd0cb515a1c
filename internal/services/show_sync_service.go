package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"comedyuo/showsync/internal/constants"
	"comedyuo/showsync/internal/db/repositories"
	"comedyuo/showsync/internal/logging"
	"comedyuo/showsync/internal/mapping"
	"comedyuo/showsync/internal/metrics"
	"comedyuo/showsync/internal/models/gorm"
	"comedyuo/showsync/internal/providers"
)

// SyncResult summarizes one pull of the remote table
type SyncResult struct {
	Synced    int           `json:"synced"`
	Failed    int           `json:"failed"`
	Pruned    int           `json:"pruned"`
	Fallbacks int           `json:"date_fallbacks"`
	Errors    []RecordError `json:"errors,omitempty"`
}

// RecordError is a record that could not be mirrored
type RecordError struct {
	RemoteID string `json:"remote_id"`
	Message  string `json:"message"`
}

func (r *SyncResult) fail(remoteID string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RecordError{RemoteID: remoteID, Message: err.Error()})
}

// ShowSyncService pulls every remote show into the local store
type ShowSyncService struct {
	remote   providers.RemoteStore
	shows    *repositories.ShowRepo
	history  *repositories.ShowSyncHistoryRepo
	deletion DeletionPolicy
	metrics  *metrics.MetricsRegistry
	group    singleflight.Group
	now      func() time.Time
}

// NewShowSyncService creates a sync service. history and m may be nil.
func NewShowSyncService(
	remote providers.RemoteStore,
	shows *repositories.ShowRepo,
	history *repositories.ShowSyncHistoryRepo,
	deletion DeletionPolicy,
	m *metrics.MetricsRegistry,
) *ShowSyncService {
	if deletion == "" {
		deletion = DeletionKeep
	}
	return &ShowSyncService{
		remote:   remote,
		shows:    shows,
		history:  history,
		deletion: deletion,
		metrics:  m,
		now:      time.Now,
	}
}

// syncRunTimeout bounds one shared run, which outlives any single caller
const syncRunTimeout = 5 * time.Minute

// SyncFromRemote lists the remote table once and upserts every record.
// A listing failure is returned and nothing is written. Per-record failures
// are counted and collected in the result. Concurrent callers share one run;
// the run is detached from their contexts, and each caller stops waiting when
// its own context is done.
func (s *ShowSyncService) SyncFromRemote(ctx context.Context) (*SyncResult, error) {
	ch := s.group.DoChan(constants.SyncEventShowsAT, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), syncRunTimeout)
		defer cancel()
		return s.run(runCtx)
	})

	select {
	case <-ctx.Done():
		logging.Warn("Caller stopped waiting for show sync", "error", ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			logging.Debug("Joined in-flight show sync")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*SyncResult), nil
	}
}

func (s *ShowSyncService) run(ctx context.Context) (*SyncResult, error) {
	start := time.Now()
	logging.Info("Starting show sync", "deletion_policy", string(s.deletion))

	records, err := s.remote.ListAll(ctx)
	if err != nil {
		logging.Error("Show sync aborted, listing failed", "error", err)
		return nil, err
	}

	result := &SyncResult{}
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			logging.Warn("Show sync interrupted", "synced", result.Synced, "error", err)
			return nil, err
		}
		if rec.ID == "" {
			result.fail("", fmt.Errorf("record has no id"))
			continue
		}
		seen[rec.ID] = true

		fields, src, err := mapping.FromRemote(rec.Fields, s.now())
		if err != nil {
			logging.Warn("Skipping show record", "remote_id", rec.ID, "error", err)
			result.fail(rec.ID, err)
			continue
		}
		if src == mapping.TimeSourceFallback {
			result.Fallbacks++
			logging.Warn("Show date missing or unparseable, using current time", "remote_id", rec.ID)
		}

		if _, err := s.shows.Upsert(ctx, rec.ID, *fields); err != nil {
			logging.Error("Failed to upsert show", "remote_id", rec.ID, "error", err)
			result.fail(rec.ID, err)
			continue
		}
		result.Synced++
	}

	if s.deletion == DeletionPrune {
		s.prune(ctx, seen, result)
	}

	if s.history != nil {
		counts := repositories.SyncCounts{Synced: result.Synced, Failed: result.Failed, Pruned: result.Pruned}
		if err := s.history.RecordSync(ctx, constants.SyncEventShowsAT, counts, s.now()); err != nil {
			logging.Error("Failed to record sync history", "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.SyncRunDuration.Observe(time.Since(start).Seconds())
		s.metrics.SyncRecordsTotal.WithLabelValues("synced").Add(float64(result.Synced))
		s.metrics.SyncRecordsTotal.WithLabelValues("failed").Add(float64(result.Failed))
		s.metrics.SyncRecordsTotal.WithLabelValues("pruned").Add(float64(result.Pruned))
	}

	logging.Info("Show sync complete",
		"remote", len(records),
		"synced", result.Synced,
		"failed", result.Failed,
		"pruned", result.Pruned,
		"date_fallbacks", result.Fallbacks,
		"duration", time.Since(start).Truncate(time.Millisecond).String(),
	)
	return result, nil
}

// prune deletes local rows whose remote record was not in the listing
func (s *ShowSyncService) prune(ctx context.Context, seen map[string]bool, result *SyncResult) {
	localIDs, err := s.shows.ListRemoteIDs(ctx)
	if err != nil {
		logging.Error("Prune skipped, failed to list local shows", "error", err)
		result.fail("", fmt.Errorf("prune: %w", err))
		return
	}

	var gone []string
	for _, id := range localIDs {
		if !seen[id] {
			gone = append(gone, id)
		}
	}
	if len(gone) == 0 {
		return
	}

	n, err := s.shows.DeleteByRemoteIDs(ctx, gone)
	if err != nil {
		logging.Error("Prune failed", "error", err)
		result.fail("", fmt.Errorf("prune: %w", err))
		return
	}
	result.Pruned = int(n)
	logging.Info("Pruned shows deleted remotely", "count", n)
}

// RefreshOne re-reads the remote record linked to show and upserts it
func (s *ShowSyncService) RefreshOne(ctx context.Context, show *gorm.Show) (*gorm.Show, error) {
	rec, err := s.remote.Get(ctx, show.RemoteID)
	if err != nil {
		return nil, err
	}

	fields, src, err := mapping.FromRemote(rec.Fields, s.now())
	if err != nil {
		return nil, fmt.Errorf("map remote record %s: %w", show.RemoteID, err)
	}
	if src == mapping.TimeSourceFallback {
		logging.Warn("Show date missing or unparseable, using current time", "remote_id", show.RemoteID)
	}

	refreshed, err := s.shows.Upsert(ctx, show.RemoteID, *fields)
	if err != nil {
		return nil, &PersistenceError{Op: "refresh", Err: err}
	}
	return refreshed, nil
}
