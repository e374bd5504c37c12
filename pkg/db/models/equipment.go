package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vantageav/ledrental-backend/pkg/enums"
)

// Equipment is one physical unit (a laptop, a video processor, a cable reel),
// not a count. Status is the coarse current-state flag; interval conflicts are
// decided from assignments.
type Equipment struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Type         enums.EquipmentType   `gorm:"column:equipment_type;type:text;not null;index"`
	Status       enums.EquipmentStatus `gorm:"column:status;type:text;not null;default:'available'"`
	Model        *string               `gorm:"column:model"`
	SerialNumber *string               `gorm:"column:serial_number;uniqueIndex"`
	Notes        *string               `gorm:"column:notes"`

	Assignments []OrderEquipmentAssignment `gorm:"foreignKey:EquipmentID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *Equipment) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
