package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ScreenInventory is a pooled area resource: one row per LED panel product,
// with capacity tracked in square meters rather than discrete units.
type ScreenInventory struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ScreenType    string          `gorm:"column:screen_type;not null;uniqueIndex"`
	PixelPitch    decimal.Decimal `gorm:"column:pixel_pitch;type:decimal(6,2);not null"`
	TotalSqmOwned decimal.Decimal `gorm:"column:total_sqm_owned;type:decimal(10,2);not null"`
	Description   *string         `gorm:"column:description"`
	// No column default: GORM would omit a false value on insert and the
	// default would win, making it impossible to create a deactivated screen.
	IsActive bool `gorm:"column:is_active;not null"`

	Requirements       []OrderScreenRequirement  `gorm:"foreignKey:ScreenInventoryID"`
	MaintenanceWindows []ScreenMaintenanceWindow `gorm:"foreignKey:ScreenInventoryID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the singular table name the schema has always used.
func (ScreenInventory) TableName() string {
	return "screen_inventory"
}

func (s *ScreenInventory) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
