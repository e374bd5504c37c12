package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vantageav/ledrental-backend/pkg/enums"
)

// Order is the reservation subject: a time-bounded rental holding area
// requirements and equipment assignments against shared resources.
type Order struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderCode string    `gorm:"column:order_code;not null;uniqueIndex"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	StartDate    time.Time `gorm:"column:start_date;not null"`
	EndDate      time.Time `gorm:"column:end_date;not null"`
	DurationDays int       `gorm:"column:duration_days;not null"`

	Status        enums.OrderStatus   `gorm:"column:order_status;type:text;not null;default:'confirmed'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'not_received'"`

	PricePerSqm decimal.Decimal `gorm:"column:price_per_sqm;type:decimal(10,2);not null"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:decimal(12,2);not null;default:0"`
	Paid        decimal.Decimal `gorm:"column:paid;type:decimal(12,2);not null;default:0"`

	LaptopsNeeded         int `gorm:"column:laptops_needed;not null"`
	VideoProcessorsNeeded int `gorm:"column:video_processors_needed;not null"`

	LocationName *string `gorm:"column:location_name"`
	Notes        *string `gorm:"column:notes"`

	Requirements []OrderScreenRequirement   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Assignments  []OrderEquipmentAssignment `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Remaining is the outstanding balance on the order.
func (o *Order) Remaining() decimal.Decimal {
	return o.TotalAmount.Sub(o.Paid)
}

// CanCancel reports whether the cancel transition is legal from the current state.
func (o *Order) CanCancel() bool {
	return o.Status == enums.OrderStatusConfirmed
}
