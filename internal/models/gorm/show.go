package gorm

import "time"

// Show is the local mirror of one Airtable show record.
// RemoteID links the row to its Airtable record and is unique.
type Show struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RemoteID    string    `gorm:"column:remote_id;type:varchar(32);uniqueIndex;not null" json:"remote_id"`
	Title       string    `gorm:"column:title;type:varchar(255);not null" json:"title"`
	StartTime   time.Time `gorm:"column:start_time;not null;index" json:"start_time"`
	Location    string    `gorm:"column:location;type:varchar(255);not null" json:"location"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Presenter   *string   `gorm:"column:presenter;type:varchar(255)" json:"presenter"`
	Price       *float64  `gorm:"column:price;type:numeric(10,2)" json:"price"`
	TicketURL   *string   `gorm:"column:ticket_url;type:varchar(500)" json:"ticket_url"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Show) TableName() string {
	return "shows"
}
