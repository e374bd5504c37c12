package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderScreenRequirement is an area reservation line: this order holds
// SqmRequired of one screen type for the order's interval. A row counts
// against availability while ReleasedAt is unset and the owning order is
// still consuming capacity.
type OrderScreenRequirement struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	// The unique index only covers live rows: an update stamps the old
	// requirement released and inserts a fresh one for the same screen type.
	OrderID           uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_order_screen,where:released_at IS NULL"`
	ScreenInventoryID uuid.UUID       `gorm:"column:screen_inventory_id;type:uuid;not null;uniqueIndex:idx_order_screen"`
	SqmRequired       decimal.Decimal `gorm:"column:sqm_required;type:decimal(10,2);not null"`

	Rows    *int `gorm:"column:panel_rows"`
	Columns *int `gorm:"column:panel_columns"`

	ReservedAt *time.Time `gorm:"column:reserved_at"`
	ReleasedAt *time.Time `gorm:"column:released_at"`

	ScreenInventory *ScreenInventory `gorm:"foreignKey:ScreenInventoryID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *OrderScreenRequirement) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Released reports whether this requirement no longer consumes capacity.
func (r *OrderScreenRequirement) Released() bool {
	return r.ReleasedAt != nil
}

// CalculatedSqm derives area from the declared panel layout using the
// standard 0.5m x 0.5m panel size. Returns false when no layout is declared.
func (r *OrderScreenRequirement) CalculatedSqm() (decimal.Decimal, bool) {
	if r.Rows == nil || r.Columns == nil {
		return decimal.Zero, false
	}
	panels := decimal.NewFromInt(int64(*r.Rows) * int64(*r.Columns))
	return panels.Mul(PanelUnitArea), true
}

// PanelUnitArea is the area of one standard LED panel (0.5m x 0.5m).
var PanelUnitArea = decimal.RequireFromString("0.25")
