package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ScreenMaintenanceWindow pulls sqm out of availability for a date range,
// independent of any order.
type ScreenMaintenanceWindow struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ScreenInventoryID uuid.UUID       `gorm:"column:screen_inventory_id;type:uuid;not null;index"`
	Sqm               decimal.Decimal `gorm:"column:sqm;type:decimal(10,2);not null"`
	StartDate         time.Time       `gorm:"column:start_date;not null"`
	EndDate           time.Time       `gorm:"column:end_date;not null"`
	Reason            *string         `gorm:"column:reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (w *ScreenMaintenanceWindow) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
