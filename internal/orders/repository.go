package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vantageav/ledrental-backend/pkg/db/models"
	"github.com/vantageav/ledrental-backend/pkg/enums"
)

// ListFilter narrows order listings.
type ListFilter struct {
	Status *enums.OrderStatus
	UserID *uuid.UUID

	// From/To select orders whose interval overlaps [From, To].
	From *time.Time
	To   *time.Time
}

// Repository is the persistence surface for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
	Save(ctx context.Context, order *models.Order) error

	// Delete hard-deletes the order and its reservation rows.
	Delete(ctx context.Context, id uuid.UUID) error

	// CodesByPrefix returns the order codes issued under a daily prefix, used
	// to pick the next letter in the daily code sequence.
	CodesByPrefix(ctx context.Context, prefix string) ([]string, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{db: conn}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Requirements").
		Preload("Requirements.ScreenInventory").
		Preload("Assignments").
		Preload("Assignments.Equipment").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Order("start_date ASC").Order("order_code ASC")
	if filter.Status != nil {
		query = query.Where("order_status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.From != nil {
		query = query.Where("end_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("start_date <= ?", *filter.To)
	}
	var orders []models.Order
	err := query.Find(&orders).Error
	return orders, err
}

func (r *gormRepository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Children first: sqlite in tests does not enforce the cascade.
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Delete(&models.OrderEquipmentAssignment{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Delete(&models.OrderScreenRequirement{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id).Error
}

func (r *gormRepository) CodesByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_code LIKE ?", prefix+"%").
		Pluck("order_code", &codes).Error
	return codes, err
}
