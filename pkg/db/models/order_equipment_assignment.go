package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vantageav/ledrental-backend/pkg/enums"
)

// OrderEquipmentAssignment is a unit reservation line: one physical unit held
// by one order. Active (conflicting) while ReturnedAt is null and the owning
// order still consumes capacity.
type OrderEquipmentAssignment struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	// Uniqueness holds per live assignment only; returned rows are history
	// and must not block re-assigning the same unit to the same order.
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_order_equipment,where:returned_at IS NULL"`
	EquipmentID uuid.UUID `gorm:"column:equipment_id;type:uuid;not null;uniqueIndex:idx_order_equipment"`

	AssignedAt  time.Time              `gorm:"column:assigned_at;not null"`
	ReturnedAt  *time.Time             `gorm:"column:returned_at"`
	Status      enums.AssignmentStatus `gorm:"column:assignment_status;type:text;not null;default:'assigned'"`
	ReturnNotes *string                `gorm:"column:return_notes"`

	Equipment *Equipment `gorm:"foreignKey:EquipmentID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (a *OrderEquipmentAssignment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Active reports whether the assignment still holds the unit.
func (a *OrderEquipmentAssignment) Active() bool {
	return a.ReturnedAt == nil
}
