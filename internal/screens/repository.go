package screens

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vantageav/ledrental-backend/internal/interval"
	"github.com/vantageav/ledrental-backend/pkg/db"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	"github.com/vantageav/ledrental-backend/pkg/enums"
)

// Repository is the persistence surface for screen inventory and its
// reservation rows. WithTx rebinds the repository to a transaction handle.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, screen *models.ScreenInventory) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ScreenInventory, error)
	FindByType(ctx context.Context, screenType string) (*models.ScreenInventory, error)
	List(ctx context.Context, includeInactive bool) ([]models.ScreenInventory, error)
	Update(ctx context.Context, screen *models.ScreenInventory) error
	Delete(ctx context.Context, id uuid.UUID) error

	// LockForReservation loads the inventory row under a row-level lock so
	// concurrent reservations against the same screen type serialize.
	LockForReservation(ctx context.Context, id uuid.UUID) (*models.ScreenInventory, error)

	OverlappingRequirements(ctx context.Context, screenID uuid.UUID, r interval.Range) ([]models.OrderScreenRequirement, error)
	OverlappingMaintenance(ctx context.Context, screenID uuid.UUID, r interval.Range) ([]models.ScreenMaintenanceWindow, error)

	InsertRequirement(ctx context.Context, req *models.OrderScreenRequirement) error
	ActiveRequirementsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderScreenRequirement, error)
	ReleaseRequirementsForOrder(ctx context.Context, orderID uuid.UUID, at time.Time) error
	CountRequirementsForScreen(ctx context.Context, screenID uuid.UUID) (int64, error)
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

func (r *gormRepository) Create(ctx context.Context, screen *models.ScreenInventory) error {
	return r.db.WithContext(ctx).Create(screen).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ScreenInventory, error) {
	var screen models.ScreenInventory
	err := r.db.WithContext(ctx).First(&screen, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &screen, nil
}

func (r *gormRepository) FindByType(ctx context.Context, screenType string) (*models.ScreenInventory, error) {
	var screen models.ScreenInventory
	err := r.db.WithContext(ctx).First(&screen, "screen_type = ?", screenType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &screen, nil
}

func (r *gormRepository) List(ctx context.Context, includeInactive bool) ([]models.ScreenInventory, error) {
	query := r.db.WithContext(ctx).Order("screen_type ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var screens []models.ScreenInventory
	err := query.Find(&screens).Error
	return screens, err
}

func (r *gormRepository) Update(ctx context.Context, screen *models.ScreenInventory) error {
	return r.db.WithContext(ctx).Save(screen).Error
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ScreenInventory{}, "id = ?", id).Error
}

func (r *gormRepository) LockForReservation(ctx context.Context, id uuid.UUID) (*models.ScreenInventory, error) {
	var screen models.ScreenInventory
	err := db.ForUpdate(r.db.WithContext(ctx)).First(&screen, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &screen, nil
}

// OverlappingRequirements returns unreleased reservation rows whose owning
// order still consumes capacity and whose interval overlaps r. The inclusive
// overlap predicate is start <= r.End AND end >= r.Start.
func (r *gormRepository) OverlappingRequirements(ctx context.Context, screenID uuid.UUID, rng interval.Range) ([]models.OrderScreenRequirement, error) {
	var rows []models.OrderScreenRequirement
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = order_screen_requirements.order_id").
		Where("order_screen_requirements.screen_inventory_id = ?", screenID).
		Where("order_screen_requirements.released_at IS NULL").
		Where("orders.order_status = ?", enums.OrderStatusConfirmed).
		Where("orders.start_date <= ? AND orders.end_date >= ?", rng.End, rng.Start).
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) OverlappingMaintenance(ctx context.Context, screenID uuid.UUID, rng interval.Range) ([]models.ScreenMaintenanceWindow, error) {
	var rows []models.ScreenMaintenanceWindow
	err := r.db.WithContext(ctx).
		Where("screen_inventory_id = ?", screenID).
		Where("start_date <= ? AND end_date >= ?", rng.End, rng.Start).
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) InsertRequirement(ctx context.Context, req *models.OrderScreenRequirement) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *gormRepository) ActiveRequirementsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderScreenRequirement, error) {
	var rows []models.OrderScreenRequirement
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Where("released_at IS NULL").
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) ReleaseRequirementsForOrder(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderScreenRequirement{}).
		Where("order_id = ?", orderID).
		Where("released_at IS NULL").
		Update("released_at", at).Error
}

func (r *gormRepository) CountRequirementsForScreen(ctx context.Context, screenID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderScreenRequirement{}).
		Where("screen_inventory_id = ?", screenID).
		Count(&count).Error
	return count, err
}
