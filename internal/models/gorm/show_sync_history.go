package gorm

import "time"

// ShowSyncHistory tracks the last completed sync run per event
type ShowSyncHistory struct {
	ID          uint       `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Event       string     `gorm:"column:event;type:varchar(50);uniqueIndex;not null" json:"event"`
	LastSyncAt  *time.Time `gorm:"column:last_sync_at" json:"last_sync_at"`
	SyncedCount int        `gorm:"column:synced_count" json:"synced_count"`
	FailedCount int        `gorm:"column:failed_count" json:"failed_count"`
	PrunedCount int        `gorm:"column:pruned_count" json:"pruned_count"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (ShowSyncHistory) TableName() string {
	return "show_sync_history"
}
