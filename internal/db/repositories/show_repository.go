package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"comedyuo/showsync/internal/constants"
	"comedyuo/showsync/internal/mapping"
	"comedyuo/showsync/internal/models/gorm"

	gormlib "gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrShowNotFound  = errors.New("show not found")
	ErrInvalidWindow = errors.New("invalid show window")
)

// ShowRepo handles shows table operations
type ShowRepo struct {
	db *gormlib.DB
}

// NewShowRepo creates a new show repository
func NewShowRepo(db *gormlib.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// Upsert writes the mapped fields for a remote record.
// ON CONFLICT (remote_id) DO UPDATE, so repeated syncs never duplicate rows.
func (r *ShowRepo) Upsert(ctx context.Context, remoteID string, fields mapping.ShowFields) (*gorm.Show, error) {
	show := gorm.Show{
		RemoteID:    remoteID,
		Title:       fields.Title,
		StartTime:   fields.StartTime.UTC(),
		Location:    fields.Location,
		Description: fields.Description,
		Presenter:   fields.Presenter,
		Price:       fields.Price,
		TicketURL:   fields.TicketURL,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "remote_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "start_time", "location", "description",
				"presenter", "price", "ticket_url", "updated_at",
			}),
		}).
		Create(&show).Error
	if err != nil {
		return nil, fmt.Errorf("upsert show %s: %w", remoteID, err)
	}

	return r.FindByRemoteID(ctx, remoteID)
}

// ListFiltered returns shows in the window, ordered by start time then id.
// upcoming is start_time >= now, past is start_time < now.
func (r *ShowRepo) ListFiltered(ctx context.Context, window constants.ShowWindow, now time.Time) ([]gorm.Show, error) {
	query := r.db.WithContext(ctx).Model(&gorm.Show{})

	switch window {
	case constants.ShowWindowAll:
	case constants.ShowWindowUpcoming:
		query = query.Where("start_time >= ?", now.UTC())
	case constants.ShowWindowPast:
		query = query.Where("start_time < ?", now.UTC())
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidWindow, window)
	}

	var shows []gorm.Show
	if err := query.Order("start_time ASC").Order("id ASC").Find(&shows).Error; err != nil {
		return nil, err
	}
	return shows, nil
}

// Get finds a show by local id
func (r *ShowRepo) Get(ctx context.Context, id uint) (*gorm.Show, error) {
	var show gorm.Show
	err := r.db.WithContext(ctx).First(&show, id).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &show, nil
}

// FindByRemoteID finds a show by its Airtable record id
func (r *ShowRepo) FindByRemoteID(ctx context.Context, remoteID string) (*gorm.Show, error) {
	var show gorm.Show
	err := r.db.WithContext(ctx).
		Where("remote_id = ?", remoteID).
		First(&show).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &show, nil
}

// Delete removes a show by local id
func (r *ShowRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&gorm.Show{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrShowNotFound
	}
	return nil
}

// DeleteByRemoteIDs removes every show linked to one of the given remote ids
func (r *ShowRepo) DeleteByRemoteIDs(ctx context.Context, remoteIDs []string) (int64, error) {
	if len(remoteIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("remote_id IN ?", remoteIDs).
		Delete(&gorm.Show{})
	return result.RowsAffected, result.Error
}

// ListRemoteIDs returns the remote id of every local show
func (r *ShowRepo) ListRemoteIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&gorm.Show{}).
		Pluck("remote_id", &ids).Error
	return ids, err
}

// Count returns the number of local shows
func (r *ShowRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&gorm.Show{}).Count(&n).Error
	return n, err
}
