package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"comedyuo/showsync/internal/common"
	"comedyuo/showsync/internal/constants"
	"comedyuo/showsync/internal/db/repositories"
	"comedyuo/showsync/internal/logging"
	"comedyuo/showsync/internal/mapping"
	"comedyuo/showsync/internal/metrics"
	"comedyuo/showsync/internal/models/dtos/requests"
	"comedyuo/showsync/internal/models/dtos/responses"
	"comedyuo/showsync/internal/models/gorm"
	"comedyuo/showsync/internal/providers"
	"comedyuo/showsync/internal/validation"
)

const idempotencyPending = "pending"

// ShowServiceDeps wires a ShowService. Cache, History, Email and Metrics are optional.
type ShowServiceDeps struct {
	Remote         providers.RemoteStore
	Shows          *repositories.ShowRepo
	History        *repositories.ShowSyncHistoryRepo
	Sync           *ShowSyncService
	Policy         SyncPolicy
	Cache          common.CacheInterface
	IdempotencyTTL time.Duration
	Email          providers.EmailSender
	Metrics        *metrics.MetricsRegistry
}

// ShowService is the per-verb facade used by the HTTP handlers. Writes go to
// the remote store first and are mirrored locally only after it succeeds.
type ShowService struct {
	remote         providers.RemoteStore
	shows          *repositories.ShowRepo
	history        *repositories.ShowSyncHistoryRepo
	sync           *ShowSyncService
	policy         SyncPolicy
	cache          common.CacheInterface
	idempotencyTTL time.Duration
	email          providers.EmailSender
	metrics        *metrics.MetricsRegistry
	now            func() time.Time
}

func NewShowService(deps ShowServiceDeps) *ShowService {
	policy := deps.Policy
	if policy == nil {
		policy = RemoteAuthoritative{}
	}
	ttl := deps.IdempotencyTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &ShowService{
		remote:         deps.Remote,
		shows:          deps.Shows,
		history:        deps.History,
		sync:           deps.Sync,
		policy:         policy,
		cache:          deps.Cache,
		idempotencyTTL: ttl,
		email:          deps.Email,
		metrics:        deps.Metrics,
		now:            time.Now,
	}
}

// List returns shows in the filter window. A sync runs first when the policy
// asks for it; its failure is logged and the local mirror is served.
func (s *ShowService) List(ctx context.Context, filter string) ([]gorm.Show, error) {
	window := constants.ShowWindow(filter)
	switch window {
	case constants.ShowWindowAll, constants.ShowWindowUpcoming, constants.ShowWindowPast:
	default:
		return nil, &ValidationError{Message: constants.MsgInvalidFilter}
	}

	if s.policy.SyncOnList() {
		if _, err := s.sync.SyncFromRemote(ctx); err != nil {
			logging.Warn("Implicit sync failed, serving local shows", "error", err)
		}
	}

	shows, err := s.shows.ListFiltered(ctx, window, s.now())
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return shows, nil
}

// Get returns one show. Under a remote-authoritative policy the record is
// refreshed first; a failed refresh falls back to the local copy.
func (s *ShowService) Get(ctx context.Context, id uint) (*gorm.Show, error) {
	show, err := s.getLocal(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.policy.RefreshOnGet() {
		return show, nil
	}

	refreshed, err := s.sync.RefreshOne(ctx, show)
	if err != nil {
		if providers.IsRemoteNotFound(err) {
			logging.Warn("Remote record missing, serving local copy", "id", id, "remote_id", show.RemoteID)
		} else {
			logging.Warn("Refresh failed, serving local copy", "id", id, "remote_id", show.RemoteID, "error", err)
		}
		return show, nil
	}
	return refreshed, nil
}

// Create validates the request, creates the remote record and mirrors it.
// With an idempotency key a repeated request returns the first result.
// The second return value reports such a replay.
func (s *ShowService) Create(ctx context.Context, req requests.CreateShowRequest, idempotencyKey string) (*gorm.Show, bool, error) {
	if err := validateRequest(&req); err != nil {
		return nil, false, err
	}

	var cacheKey string
	if idempotencyKey != "" && s.cache != nil {
		cacheKey = string(constants.CachePrefixIdempotency) + idempotencyKey
		if !s.cache.SetIfAbsent(cacheKey, idempotencyPending, s.idempotencyTTL) {
			return s.replay(ctx, cacheKey, idempotencyKey)
		}
	}

	show, err := s.create(ctx, req)
	if cacheKey != "" {
		if err != nil {
			s.cache.Delete(cacheKey)
		} else {
			s.cache.Set(cacheKey, strconv.FormatUint(uint64(show.ID), 10), s.idempotencyTTL)
		}
	}
	return show, false, err
}

func (s *ShowService) create(ctx context.Context, req requests.CreateShowRequest) (*gorm.Show, error) {
	rec, err := s.remote.Create(ctx, mapping.ToRemote(req.LocalFields()))
	if err != nil {
		logging.Error("Remote create failed", "title", req.Title, "error", err)
		return nil, err
	}

	show, err := s.shows.Upsert(ctx, rec.ID, req.ShowFields())
	if err != nil {
		logging.Error("Remote record created but local mirror failed", "remote_id", rec.ID, "error", err)
		return nil, &PersistenceError{Op: "create", Err: err}
	}

	logging.Info("Show created", "id", show.ID, "remote_id", rec.ID)
	return show, nil
}

func (s *ShowService) replay(ctx context.Context, cacheKey, key string) (*gorm.Show, bool, error) {
	v, found := s.cache.Get(cacheKey)
	if !found {
		return nil, false, &ConflictError{Key: key}
	}
	raw, _ := v.(string)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, false, &ConflictError{Key: key}
	}

	show, err := s.getLocal(ctx, uint(id))
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.IdempotentReplays.Inc()
	}
	logging.Info("Replayed idempotent create", "id", show.ID, "key", key)
	return show, true, nil
}

// Update sends the changed fields to the remote record, then upserts the
// merged result locally. Retrying after a local failure converges.
func (s *ShowService) Update(ctx context.Context, id uint, req requests.UpdateShowRequest) (*gorm.Show, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	changes := req.Changes()
	if len(changes) == 0 {
		return nil, &ValidationError{Message: "no fields to update"}
	}

	show, err := s.getLocal(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.remote.Update(ctx, show.RemoteID, mapping.ToRemote(changes)); err != nil {
		logging.Error("Remote update failed", "id", id, "remote_id", show.RemoteID, "error", err)
		return nil, err
	}

	updated, err := s.shows.Upsert(ctx, show.RemoteID, req.ApplyTo(fieldsOf(show)))
	if err != nil {
		return nil, &PersistenceError{Op: "update", Err: err}
	}
	return updated, nil
}

// Delete removes the remote record, then the local row. A remote NOT_FOUND
// means an earlier attempt already deleted it.
func (s *ShowService) Delete(ctx context.Context, id uint) error {
	show, err := s.getLocal(ctx, id)
	if err != nil {
		return err
	}

	if err := s.remote.Delete(ctx, show.RemoteID); err != nil {
		if !providers.IsRemoteNotFound(err) {
			logging.Error("Remote delete failed", "id", id, "remote_id", show.RemoteID, "error", err)
			return err
		}
		logging.Info("Remote record already deleted", "id", id, "remote_id", show.RemoteID)
	}

	if err := s.shows.Delete(ctx, show.ID); err != nil && !errors.Is(err, repositories.ErrShowNotFound) {
		return &PersistenceError{Op: "delete", Err: err}
	}
	return nil
}

// Sync runs an explicit sync and returns its result
func (s *ShowService) Sync(ctx context.Context) (*SyncResult, error) {
	return s.sync.SyncFromRemote(ctx)
}

// SyncStatus reports the last recorded sync run and the local row count
func (s *ShowService) SyncStatus(ctx context.Context) (*responses.SyncStatusResponse, error) {
	status := &responses.SyncStatusResponse{Event: constants.SyncEventShowsAT}

	if s.history != nil {
		latest, err := s.history.Latest(ctx, constants.SyncEventShowsAT)
		if err != nil {
			return nil, &PersistenceError{Op: "sync status", Err: err}
		}
		if latest != nil {
			status.LastSyncAt = latest.LastSyncAt
			status.SyncedCount = latest.SyncedCount
			status.FailedCount = latest.FailedCount
			status.PrunedCount = latest.PrunedCount
		}
	}

	n, err := s.shows.Count(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "count", Err: err}
	}
	status.LocalCount = n
	return status, nil
}

// Invite emails an invitation for a local show
func (s *ShowService) Invite(ctx context.Context, id uint, req requests.InviteRequest) (*providers.SendResult, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	show, err := s.getLocal(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.email == nil {
		return nil, &EmailError{NotConfigured: true, Err: providers.ErrEmailNotConfigured}
	}

	start := show.StartTime
	invite := providers.InviteContext{
		FirstName:   req.FirstName,
		Title:       show.Title,
		StartTime:   &start,
		Location:    show.Location,
		Description: show.Description,
	}
	if show.TicketURL != nil {
		invite.TicketURL = *show.TicketURL
	}

	result, err := s.email.Send(ctx, req.Email, invite)
	s.countInvite(err)
	if err != nil {
		emailErr := &EmailError{
			NotConfigured: errors.Is(err, providers.ErrEmailNotConfigured),
			Err:           err,
		}
		if result != nil {
			emailErr.StatusCode = result.StatusCode
		}
		logging.Error("Invite email failed", "id", id, "error", err)
		return result, emailErr
	}

	logging.Info("Invite email sent", "id", id, "status", result.StatusCode)
	return result, nil
}

func (s *ShowService) countInvite(err error) {
	if s.metrics == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	s.metrics.InvitesSentTotal.WithLabelValues(outcome).Inc()
}

func (s *ShowService) getLocal(ctx context.Context, id uint) (*gorm.Show, error) {
	show, err := s.shows.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrShowNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, &PersistenceError{Op: "get", Err: err}
	}
	return show, nil
}

func validateRequest(req interface{}) error {
	if err := validation.ValidateStruct(req); err != nil {
		var ve *validation.RequestValidationError
		if errors.As(err, &ve) {
			return &ValidationError{Message: ve.Error(), Details: ve.Fields, Err: err}
		}
		return &ValidationError{Message: fmt.Sprintf("invalid request: %v", err), Err: err}
	}
	return nil
}

func fieldsOf(show *gorm.Show) mapping.ShowFields {
	return mapping.ShowFields{
		Title:       show.Title,
		StartTime:   show.StartTime,
		Location:    show.Location,
		Description: show.Description,
		Presenter:   show.Presenter,
		Price:       show.Price,
		TicketURL:   show.TicketURL,
	}
}
