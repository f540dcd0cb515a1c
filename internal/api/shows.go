package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"comedyuo/showsync/internal/constants"
	"comedyuo/showsync/internal/logging"
	"comedyuo/showsync/internal/models/dtos/requests"
	"comedyuo/showsync/internal/models/dtos/responses"
	"comedyuo/showsync/internal/models/gorm"
	"comedyuo/showsync/internal/providers"
	"comedyuo/showsync/internal/services"
)

// IdempotencyKeyHeader lets clients retry POST /shows safely
const IdempotencyKeyHeader = "Idempotency-Key"

// ShowAPI is the service surface used by the show handlers
type ShowAPI interface {
	List(ctx context.Context, filter string) ([]gorm.Show, error)
	Get(ctx context.Context, id uint) (*gorm.Show, error)
	Create(ctx context.Context, req requests.CreateShowRequest, idempotencyKey string) (*gorm.Show, bool, error)
	Update(ctx context.Context, id uint, req requests.UpdateShowRequest) (*gorm.Show, error)
	Delete(ctx context.Context, id uint) error
	Sync(ctx context.Context) (*services.SyncResult, error)
	SyncStatus(ctx context.Context) (*responses.SyncStatusResponse, error)
	Invite(ctx context.Context, id uint, req requests.InviteRequest) (*providers.SendResult, error)
}

type ShowHandlers struct {
	svc ShowAPI
}

func NewShowHandlers(svc ShowAPI) *ShowHandlers {
	return &ShowHandlers{svc: svc}
}

// ListShows handles GET /shows?filter=upcoming|past
func (h *ShowHandlers) ListShows(w http.ResponseWriter, r *http.Request) {
	shows, err := h.svc.List(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithList(w, shows)
}

// GetShow handles GET /shows/{id}
func (h *ShowHandlers) GetShow(w http.ResponseWriter, r *http.Request) {
	id, ok := showID(w, r)
	if !ok {
		return
	}

	show, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithSuccess(w, http.StatusOK, show)
}

// CreateShow handles POST /shows. A replayed Idempotency-Key answers 200
// with the show created by the first request.
func (h *ShowHandlers) CreateShow(w http.ResponseWriter, r *http.Request) {
	var req requests.CreateShowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, constants.MsgInvalidBody)
		return
	}

	show, replayed, err := h.svc.Create(r.Context(), req, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	respondWithSuccess(w, status, show)
}

// UpdateShow handles PUT and PATCH /shows/{id}; both apply a partial update
func (h *ShowHandlers) UpdateShow(w http.ResponseWriter, r *http.Request) {
	id, ok := showID(w, r)
	if !ok {
		return
	}

	var req requests.UpdateShowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, constants.MsgInvalidBody)
		return
	}

	show, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithSuccess(w, http.StatusOK, show)
}

// DeleteShow handles DELETE /shows/{id}
func (h *ShowHandlers) DeleteShow(w http.ResponseWriter, r *http.Request) {
	id, ok := showID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithMessage(w, http.StatusOK, constants.MsgShowDeleted)
}

// SyncShows handles POST /shows/sync
func (h *ShowHandlers) SyncShows(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Sync(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	count := result.Synced
	writeJSON(w, http.StatusOK, responses.APIResponse[services.SyncResult]{
		Success: true,
		Data:    result,
		Count:   &count,
		Message: fmt.Sprintf("synced %d shows", count),
	})
}

// SyncStatus handles GET /shows/sync/status
func (h *ShowHandlers) SyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.SyncStatus(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithSuccess(w, http.StatusOK, status)
}

// InviteToShow handles POST /shows/{id}/invite
func (h *ShowHandlers) InviteToShow(w http.ResponseWriter, r *http.Request) {
	id, ok := showID(w, r)
	if !ok {
		return
	}

	var req requests.InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, constants.MsgInvalidBody)
		return
	}

	result, err := h.svc.Invite(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logging.Debug("Invite delivered", "id", id, "status_code", result.StatusCode)
	writeJSON(w, http.StatusOK, responses.APIResponse[providers.SendResult]{
		Success: true,
		Data:    result,
		Message: result.Message,
	})
}

// showID parses the {id} URL param, writing a 404 when it is not a positive integer
func showID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondWithError(w, http.StatusNotFound, constants.MsgShowNotFound)
		return 0, false
	}
	return uint(id), true
}
